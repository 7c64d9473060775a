package server

import (
	"errors"
	"strings"
	"time"

	"github.com/kataras/iris/v12"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/n4wf3l/perfume-platform-backend/internal/apperrors"
	"github.com/n4wf3l/perfume-platform-backend/internal/auth"
	"github.com/n4wf3l/perfume-platform-backend/internal/config"
	"github.com/n4wf3l/perfume-platform-backend/internal/datamodels/category"
	"github.com/n4wf3l/perfume-platform-backend/internal/datamodels/order"
	"github.com/n4wf3l/perfume-platform-backend/internal/datamodels/product"
	"github.com/n4wf3l/perfume-platform-backend/internal/infra/mq"
	"github.com/n4wf3l/perfume-platform-backend/internal/infra/redis"
	"github.com/n4wf3l/perfume-platform-backend/internal/middleware"
	"github.com/n4wf3l/perfume-platform-backend/internal/repository/mysql"
	"github.com/n4wf3l/perfume-platform-backend/internal/service"
)

// RegisterRoutes wires infrastructure, services and all HTTP routes.
func RegisterRoutes(app *iris.Application, cfg *config.Config) {
	db := mysql.Init(&cfg.MySQL)
	redisClient := redis.Init(&cfg.Redis)
	mqConn := mq.Init(&cfg.RabbitMQ)

	ring := auth.NewHashRing(cfg.Auth.Nodes, cfg.Auth.HashReplicas)
	tokenCache := auth.NewTokenCache(redisClient, ring,
		time.Duration(cfg.Auth.TokenCacheTTLSeconds)*time.Second)

	userRepo := mysql.NewUserRepository(db)

	userSvc := service.NewUserService(userRepo, &cfg.JWT, tokenCache)
	productSvc := service.NewProductService(db)
	categorySvc := service.NewCategoryService(db)
	orderSvc := service.NewOrderService(db, mq.NewPublisher(mqConn))

	api := app.Party("/api")

	api.Get("/health", func(ctx iris.Context) {
		ctx.JSON(iris.Map{"status": "ok"})
	})

	// ---------- auth ----------

	api.Post("/login", func(ctx iris.Context) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			badRequest(ctx, err)
			return
		}
		token, err := userSvc.Login(ctx.Request().Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, service.ErrInvalidCredentials) {
				ctx.StopWithJSON(iris.StatusUnauthorized, iris.Map{"error": "Invalid credentials."})
				return
			}
			writeError(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"token": token})
	})

	// ---------- public catalog ----------

	api.Get("/products", func(ctx iris.Context) {
		categoryID := ctx.URLParamInt64Default("category_id", 0)
		gender := ctx.URLParam("gender")
		list, err := productSvc.ListFiltered(ctx.Request().Context(), categoryID, gender)
		if err != nil {
			writeError(ctx, err)
			return
		}
		ctx.JSON(list)
	})

	api.Get("/products/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		p, err := productSvc.GetByID(ctx.Request().Context(), id)
		if err != nil {
			writeError(ctx, err)
			return
		}
		ctx.JSON(p)
	})

	api.Get("/categories", func(ctx iris.Context) {
		list, err := categorySvc.ListAll(ctx.Request().Context())
		if err != nil {
			writeError(ctx, err)
			return
		}
		ctx.JSON(list)
	})

	api.Get("/categories/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		c, err := categorySvc.GetByID(ctx.Request().Context(), id)
		if err != nil {
			writeError(ctx, err)
			return
		}
		ctx.JSON(c)
	})

	// ---------- order placement (public, rate limited) ----------

	api.Post("/orders", middleware.OrderRateLimit(), func(ctx iris.Context) {
		var in service.PlaceOrderInput
		if err := ctx.ReadJSON(&in); err != nil {
			badRequest(ctx, err)
			return
		}
		if in.IdempotencyKey == "" {
			in.IdempotencyKey = ctx.GetHeader("Idempotency-Key")
		}
		placed, err := orderSvc.PlaceOrder(ctx.Request().Context(), in)
		if err != nil {
			writeError(ctx, err)
			return
		}
		ctx.StatusCode(iris.StatusCreated)
		ctx.JSON(placed)
	})

	// ---------- authenticated surface ----------

	authed := api.Party("/", authRequired(&cfg.JWT, tokenCache))

	authed.Post("/logout", func(ctx iris.Context) {
		token := bearerToken(ctx)
		if err := userSvc.Logout(ctx.Request().Context(), token); err != nil {
			writeError(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"message": "Logged out successfully."})
	})

	registerProductAdmin(authed, productSvc)
	registerCategoryAdmin(authed, categorySvc)
	registerOrderAdmin(authed, orderSvc)
}

// authRequired parses the bearer token, consulting the Redis cache and the
// revocation list before falling back to signature verification.
func authRequired(jwtCfg *config.JWTConfig, cache *auth.TokenCache) iris.Handler {
	return func(ctx iris.Context) {
		token := bearerToken(ctx)
		if token == "" {
			ctx.StopWithJSON(iris.StatusUnauthorized, iris.Map{"error": "Missing token."})
			return
		}
		reqCtx := ctx.Request().Context()
		if revoked, err := cache.IsRevoked(reqCtx, token); err == nil && revoked {
			ctx.StopWithJSON(iris.StatusUnauthorized, iris.Map{"error": "Token revoked."})
			return
		}
		claims, hit, err := cache.Get(reqCtx, token)
		if err != nil || !hit {
			claims, err = auth.ParseToken(jwtCfg, token)
			if err != nil {
				ctx.StopWithJSON(iris.StatusUnauthorized, iris.Map{"error": "Invalid token."})
				return
			}
			_ = cache.Set(reqCtx, token, claims)
		}
		ctx.Values().Set("user_id", claims.UserID)
		ctx.Values().Set("email", claims.Email)
		ctx.Next()
	}
}

func bearerToken(ctx iris.Context) string {
	header := ctx.GetHeader("Authorization")
	return strings.TrimPrefix(header, "Bearer ")
}

func registerOrderAdmin(party iris.Party, orderSvc *service.OrderService) {
	party.Get("/orders", func(ctx iris.Context) {
		list, err := orderSvc.ListOrders(ctx.Request().Context())
		if err != nil {
			writeError(ctx, err)
			return
		}
		ctx.JSON(list)
	})

	party.Get("/orders/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		o, err := orderSvc.GetOrder(ctx.Request().Context(), id)
		if err != nil {
			writeError(ctx, err)
			return
		}
		ctx.JSON(o)
	})

	party.Put("/orders/{id:int64}/status", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		var req struct {
			Status string `json:"status"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			badRequest(ctx, err)
			return
		}
		o, err := orderSvc.UpdateStatus(ctx.Request().Context(), id, order.Status(req.Status))
		if err != nil {
			writeError(ctx, err)
			return
		}
		ctx.JSON(o)
	})

	party.Delete("/orders/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		if err := orderSvc.DeleteOrder(ctx.Request().Context(), id); err != nil {
			writeError(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"message": "Order deleted successfully."})
	})
}

// productRequest is the admin write DTO; nil fields are left untouched on
// update.
type productRequest struct {
	Name           *string          `json:"name"`
	Description    *string          `json:"description"`
	Price          *decimal.Decimal `json:"price"`
	Stock          *int64           `json:"stock"`
	SizeML         *int             `json:"size_ml"`
	Gender         *string          `json:"gender"`
	OlfactiveNotes *string          `json:"olfactive_notes"`
	CategoryID     *int64           `json:"category_id"`
	IsHero         *bool            `json:"is_hero"`
	IsFlagship     *bool            `json:"is_flagship"`
}

func (r *productRequest) applyTo(p *product.Product) {
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.Description != nil {
		p.Description = *r.Description
	}
	if r.Price != nil {
		p.Price = *r.Price
	}
	if r.Stock != nil {
		p.Stock = *r.Stock
	}
	if r.SizeML != nil {
		p.SizeML = *r.SizeML
	}
	if r.Gender != nil {
		p.Gender = *r.Gender
	}
	if r.OlfactiveNotes != nil {
		p.OlfactiveNotes = *r.OlfactiveNotes
	}
	if r.CategoryID != nil {
		p.CategoryID = r.CategoryID
	}
	if r.IsHero != nil {
		p.IsHero = *r.IsHero
	}
	if r.IsFlagship != nil {
		p.IsFlagship = *r.IsFlagship
	}
}

func registerProductAdmin(party iris.Party, productSvc *service.ProductService) {
	party.Post("/products", func(ctx iris.Context) {
		var req productRequest
		if err := ctx.ReadJSON(&req); err != nil {
			badRequest(ctx, err)
			return
		}
		p := &product.Product{}
		req.applyTo(p)
		if err := productSvc.Create(ctx.Request().Context(), p); err != nil {
			writeError(ctx, err)
			return
		}
		ctx.StatusCode(iris.StatusCreated)
		ctx.JSON(p)
	})

	party.Put("/products/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		var req productRequest
		if err := ctx.ReadJSON(&req); err != nil {
			badRequest(ctx, err)
			return
		}
		p, err := productSvc.Update(ctx.Request().Context(), id, req.applyTo)
		if err != nil {
			writeError(ctx, err)
			return
		}
		ctx.JSON(p)
	})

	party.Delete("/products/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		if err := productSvc.Delete(ctx.Request().Context(), id); err != nil {
			writeError(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"message": "Product deleted"})
	})
}

func registerCategoryAdmin(party iris.Party, categorySvc *service.CategoryService) {
	type categoryRequest struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
	}
	apply := func(req *categoryRequest, c *category.Category) {
		if req.Name != nil {
			c.Name = *req.Name
		}
		if req.Description != nil {
			c.Description = *req.Description
		}
	}

	party.Post("/categories", func(ctx iris.Context) {
		var req categoryRequest
		if err := ctx.ReadJSON(&req); err != nil {
			badRequest(ctx, err)
			return
		}
		c := &category.Category{}
		apply(&req, c)
		if err := categorySvc.Create(ctx.Request().Context(), c); err != nil {
			writeError(ctx, err)
			return
		}
		ctx.StatusCode(iris.StatusCreated)
		ctx.JSON(c)
	})

	party.Put("/categories/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		c, err := categorySvc.GetByID(ctx.Request().Context(), id)
		if err != nil {
			writeError(ctx, err)
			return
		}
		var req categoryRequest
		if err := ctx.ReadJSON(&req); err != nil {
			badRequest(ctx, err)
			return
		}
		apply(&req, c)
		if err := categorySvc.Update(ctx.Request().Context(), c); err != nil {
			writeError(ctx, err)
			return
		}
		ctx.JSON(c)
	})

	party.Delete("/categories/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		if err := categorySvc.Delete(ctx.Request().Context(), id); err != nil {
			writeError(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"message": "Category deleted"})
	})
}

func badRequest(ctx iris.Context, err error) {
	ctx.StopWithJSON(iris.StatusBadRequest, iris.Map{"error": err.Error()})
}

// writeError maps the service error taxonomy onto HTTP responses.
// Validation and stock failures carry field-keyed messages; anything
// unrecognized becomes a generic 500 with detail kept server-side.
func writeError(ctx iris.Context, err error) {
	if v, ok := apperrors.AsValidation(err); ok {
		ctx.StopWithJSON(iris.StatusUnprocessableEntity, iris.Map{"errors": v.Fields})
		return
	}
	if is, ok := apperrors.AsInsufficientStock(err); ok {
		ctx.StopWithJSON(iris.StatusUnprocessableEntity, iris.Map{"errors": is.FieldErrors()})
		return
	}
	if nf, ok := apperrors.AsNotFound(err); ok {
		ctx.StopWithJSON(iris.StatusNotFound, iris.Map{"error": nf.Error()})
		return
	}
	zap.L().Error("request failed", zap.String("path", ctx.Path()), zap.Error(err))
	ctx.StopWithJSON(iris.StatusInternalServerError, iris.Map{
		"error": "Something went wrong while processing the request.",
	})
}
