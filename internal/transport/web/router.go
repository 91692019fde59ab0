package web

import (
	"log"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/EgorLis/blog-api/internal/config"
	_ "github.com/EgorLis/blog-api/internal/docs"
	"github.com/EgorLis/blog-api/internal/domain"
	"github.com/EgorLis/blog-api/internal/transport/web/mw"
	authv1 "github.com/EgorLis/blog-api/internal/transport/web/v1/auth"
	"github.com/EgorLis/blog-api/internal/transport/web/v1/health"
	"github.com/EgorLis/blog-api/internal/transport/web/v1/post"
	"github.com/EgorLis/blog-api/internal/transport/web/v1/user"
)

func newRouter(logger *log.Logger, cfg *config.Config, repos Repos, auth AuthDeps, cache domain.Cache) http.Handler {
	sub := func(name string) *log.Logger {
		return log.New(logger.Writer(), logger.Prefix()+"["+name+"] ", logger.Flags())
	}

	inv := mw.Invalidator{Cache: cache, Log: sub("cache")}
	authDeps := mw.AuthDeps{Tokens: auth.Tokens, Blacklist: auth.Blacklist}

	healthHandler := &health.Handler{Log: sub("health"), DB: repos.Users, Cache: cache}
	authHandler := &authv1.Handler{
		Log: sub("auth"), Users: repos.Users,
		Hasher: auth.Hasher, Tokens: auth.Tokens, Blacklist: auth.Blacklist,
	}
	postHandler := &post.Handler{Log: sub("posts"), Posts: repos.Posts, Inv: inv}
	userHandler := &user.Handler{Log: sub("users"), Users: repos.Users, Hasher: auth.Hasher}

	cacheList := mw.CachePage(cache, cfg.CacheListTTL, sub("cache"))
	cachePost := mw.CachePage(cache, cfg.CachePostTTL, sub("cache"))
	protect := func(h http.HandlerFunc) http.Handler {
		return mw.RequireAuth(authDeps, h)
	}

	mux := http.NewServeMux()

	// health
	mux.HandleFunc("GET /api/v1/healthz", healthHandler.Liveness)
	mux.HandleFunc("GET /api/v1/readyz", healthHandler.Readiness)

	// auth
	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)
	mux.HandleFunc("DELETE /api/v1/auth/logout", authHandler.Logout)

	// posts: публичное чтение под cache-aside, мутации — под auth
	mux.Handle("GET /api/v1/posts", cacheList(http.HandlerFunc(postHandler.List)))
	mux.Handle("GET /api/v1/posts/my", protect(postHandler.Mine))
	mux.Handle("GET /api/v1/posts/{id}", cachePost(http.HandlerFunc(postHandler.GetOne)))
	mux.Handle("POST /api/v1/posts", protect(postHandler.Create))
	mux.Handle("PUT /api/v1/posts/{id}", protect(postHandler.Update))
	mux.Handle("DELETE /api/v1/posts/{id}", protect(postHandler.Delete))

	// users: без кеширования
	mux.Handle("GET /api/v1/users", protect(userHandler.List))
	mux.Handle("GET /api/v1/users/{id}", protect(userHandler.GetOne))
	mux.Handle("PUT /api/v1/users/{id}", protect(userHandler.Update))
	mux.Handle("PATCH /api/v1/users/{id}", protect(userHandler.Update))
	mux.Handle("DELETE /api/v1/users/{id}", protect(userHandler.Delete))

	// swagger
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	// 404 конвертом
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"message":"route not found"}`))
	})

	var h http.Handler = mux
	h = mw.RateLimit(cache, cfg.RateLimitRPM, sub("rate"))(h)
	h = mw.Recover(logger)(h)
	h = mw.Logging(logger)(h)
	return mw.WithRequestID(h)
}
