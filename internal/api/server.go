package api

import (
	"context"
	"fmt"

	"github.com/asaskevich/EventBus"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/volunteerhub/volunteerhub-api/docs"
	v1 "github.com/volunteerhub/volunteerhub-api/internal/api/handler/v1"
	"github.com/volunteerhub/volunteerhub-api/internal/api/middleware"
	"github.com/volunteerhub/volunteerhub-api/internal/config"
	"github.com/volunteerhub/volunteerhub-api/internal/domain"
	"github.com/volunteerhub/volunteerhub-api/internal/pkg/mailer"
	"github.com/volunteerhub/volunteerhub-api/internal/pkg/storage"
	"github.com/volunteerhub/volunteerhub-api/internal/pkg/webpush"
	"github.com/volunteerhub/volunteerhub-api/internal/repository"
	"github.com/volunteerhub/volunteerhub-api/internal/repository/dao"
	"github.com/volunteerhub/volunteerhub-api/internal/service"
)

// Server owns the router and the background components that share its
// lifetime. Call StartBackground before serving and StopBackground after the
// HTTP server has shut down.
type Server struct {
	Config     *config.AppConfig
	Router     *gin.Engine
	Dispatcher *service.Dispatcher
	Sweeper    *service.Sweeper
	Mailer     mailer.Mailer
	Bus        EventBus.Bus

	sweeperDone chan struct{}
}

type handlers struct {
	auth         *v1.AuthHandler
	user         *v1.UserHandler
	event        *v1.EventHandler
	registration *v1.RegistrationHandler
	notification *v1.NotificationHandler
	liveFeed     *v1.LiveFeedHandler
	post         *v1.PostHandler
	admin        *v1.AdminHandler
}

func NewServer(conf *config.AppConfig, db *gorm.DB) (*Server, error) {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config: conf,
		Router: engine,
		Bus:    EventBus.New(),
	}

	s.MountMiddlewares()

	store, err := s.initStorage()
	if err != nil {
		return nil, fmt.Errorf("s.initStorage -> %w", err)
	}
	s.Mailer = s.initMailer()

	userRepo := repository.NewUserRepository(dao.NewUserDAO(db))
	otpRepo := repository.NewOtpRepository(dao.NewOtpDAO(db))
	eventRepo := repository.NewEventRepository(dao.NewEventDAO(db))
	regRepo := repository.NewRegistrationRepository(dao.NewRegistrationDAO(db))
	notificationRepo := repository.NewNotificationRepository(dao.NewNotificationDAO(db))
	postRepo := repository.NewPostRepository(dao.NewPostDAO(db))

	s.Dispatcher = service.NewDispatcher(notificationRepo, s.Bus, s.initPushSender(), conf.Notification)

	authSvc := service.NewAuthService(userRepo, otpRepo, s.Mailer, conf.Otp)
	userSvc := service.NewUserService(userRepo, store)
	eventSvc := service.NewEventService(eventRepo, store, s.Dispatcher)
	regSvc := service.NewRegistrationService(regRepo, eventRepo, s.Dispatcher)
	postSvc := service.NewPostService(postRepo, eventRepo, regRepo)
	notificationSvc := service.NewNotificationService(notificationRepo)
	statsSvc := service.NewStatsService(userRepo, eventRepo, regRepo)

	s.Sweeper = service.NewSweeper(eventSvc, conf.Lifecycle.SweepInterval)

	uploader := v1.NewUploader(store, conf.Storage.MaxUploadSize)

	var vapidPublicKey string
	if conf.Push.Enabled() {
		vapidPublicKey = conf.Push.VAPIDPublicKey
	}

	s.MountHandlers(handlers{
		auth:         v1.NewAuthHandler(conf.API, authSvc),
		user:         v1.NewUserHandler(userSvc, uploader),
		event:        v1.NewEventHandler(eventSvc, userSvc, uploader),
		registration: v1.NewRegistrationHandler(regSvc, userSvc),
		notification: v1.NewNotificationHandler(notificationSvc, userSvc, vapidPublicKey),
		liveFeed:     v1.NewLiveFeedHandler(s.Bus, userSvc, conf.API.AllowedCORSDomains),
		post:         v1.NewPostHandler(postSvc, userSvc),
		admin:        v1.NewAdminHandler(userSvc, statsSvc),
	})

	return s, nil
}

// StartBackground launches the dispatcher workers and the sweeper. The sweeper
// stops once ctx is done.
func (s *Server) StartBackground(ctx context.Context) {
	s.Dispatcher.Start(ctx)

	s.sweeperDone = make(chan struct{})
	go func() {
		defer close(s.sweeperDone)
		s.Sweeper.Run(ctx)
	}()
}

// StopBackground waits for the sweeper to return, so completions it is still
// making get their notifications queued, then drains the dispatcher and closes
// the mailer. The ctx given to StartBackground must be cancelled first.
func (s *Server) StopBackground() {
	if s.sweeperDone != nil {
		<-s.sweeperDone
	}

	s.Dispatcher.Stop()
	if err := s.Mailer.Close(); err != nil {
		zap.L().Warn("failed to close mailer", zap.Error(err))
	}
}

func (s *Server) initStorage() (storage.Storage, error) {
	conf := s.Config.Storage

	switch conf.Driver {
	case config.StorageCloudinary:
		store, err := storage.NewCloudinaryStorage(conf.CloudinaryURL, conf.Folder)
		if err != nil {
			return nil, fmt.Errorf("storage.NewCloudinaryStorage -> %w", err)
		}
		zap.L().Info("storing uploads on cloudinary", zap.String("folder", conf.Folder))

		return store, nil
	case config.StorageLocal, "":
		store, err := storage.NewLocalStorage(conf.LocalDir, conf.PublicPath)
		if err != nil {
			return nil, fmt.Errorf("storage.NewLocalStorage -> %w", err)
		}
		s.Router.Static(store.PublicPath(), store.Dir())
		zap.L().Info("storing uploads on disk", zap.String("dir", store.Dir()))

		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", conf.Driver)
	}
}

func (s *Server) initMailer() mailer.Mailer {
	if !s.Config.Kafka.Enabled() {
		zap.L().Warn("kafka is not configured, one-time codes are only logged")
		return mailer.LogMailer{}
	}

	return mailer.NewKafkaMailer(s.Config.Kafka.Brokers, s.Config.Kafka.Topic)
}

func (s *Server) initPushSender() webpush.Sender {
	if !s.Config.Push.Enabled() {
		zap.L().Warn("VAPID keys are not configured, web push is disabled")
		return webpush.NoopSender{}
	}

	return webpush.NewVAPIDSender(webpush.Options{
		VAPIDPublicKey:  s.Config.Push.VAPIDPublicKey,
		VAPIDPrivateKey: s.Config.Push.VAPIDPrivateKey,
		Subscriber:      s.Config.Push.Subscriber,
		TTL:             s.Config.Push.TTL,
	})
}

func (s *Server) MountMiddlewares() {
	// Logger and Recovery are needed unless we use gin.Default().
	s.Router.Use(gin.Logger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(h handlers) {
	const basePath = "/api/v1"

	public := s.Router.Group(basePath)
	{
		public.POST("/auth/otp", h.auth.HandleRequestOtp)
		public.POST("/auth/signup", h.auth.HandleSignup)
		public.POST("/auth/login", h.auth.HandleLogin)
		public.POST("/auth/reset-password", h.auth.HandleResetPassword)

		public.GET("/events/public", h.event.HandleListPublicEvents)
		public.GET("/events/public/:eventID", h.event.HandleGetPublicEvent)
	}

	authed := s.Router.Group(basePath, middleware.NewAuthenticator(s.Config.API.JWTSigningKey).VerifyJWT())
	{
		authed.GET("/users/me", h.user.HandleGetMe)
		authed.PUT("/users/me", h.user.HandleUpdateMe)
		authed.GET("/users/:userID", h.user.HandleGetUser)

		authed.POST("/events/:eventID/like", h.event.HandleLikeEvent)
		authed.POST("/events/:eventID/share", h.event.HandleShareEvent)
		authed.POST("/events/:eventID/view", h.event.HandleViewEvent)

		authed.GET("/events/:eventID/posts", h.post.HandleListPosts)
		authed.POST("/events/:eventID/posts", h.post.HandleCreatePost)
		authed.DELETE("/posts/:postID", h.post.HandleDeletePost)
		authed.GET("/posts/:postID/comments", h.post.HandleListComments)
		authed.POST("/posts/:postID/comments", h.post.HandleCreateComment)
		authed.DELETE("/comments/:commentID", h.post.HandleDeleteComment)

		authed.GET("/notifications", h.notification.HandleListNotifications)
		authed.GET("/notifications/unread-count", h.notification.HandleUnreadCount)
		authed.GET("/notifications/ws", h.liveFeed.HandleLiveFeed)
		authed.PUT("/notifications/read-all", h.notification.HandleMarkAllRead)
		authed.PUT("/notifications/:notificationID/read", h.notification.HandleMarkRead)

		authed.GET("/subscriptions/vapid-public-key", h.notification.HandleVAPIDPublicKey)
		authed.POST("/subscriptions", h.notification.HandleSubscribe)
		authed.DELETE("/subscriptions", h.notification.HandleUnsubscribe)
	}

	managers := authed.Group("", middleware.RequireRoles(domain.RoleEventManager, domain.RoleAdmin))
	{
		managers.POST("/events", h.event.HandleCreateEvent)
		managers.GET("/events/mine", h.event.HandleListMyEvents)
		managers.GET("/events/:eventID", h.event.HandleGetEvent)
		managers.PUT("/events/:eventID", h.event.HandleUpdateEvent)
		managers.DELETE("/events/:eventID", h.event.HandleDeleteEvent)
		managers.PUT("/events/:eventID/complete", h.event.HandleCompleteEvent)
		managers.GET("/events/:eventID/registrations", h.registration.HandleListEventRegistrations)

		managers.PUT("/registrations/:registrationID/status", h.registration.HandleUpdateRegistrationStatus)
		managers.PUT("/registrations/:registrationID/complete", h.registration.HandleCompleteRegistration)
		managers.PUT("/registrations/:registrationID/cancel-request", h.registration.HandleResolveCancelRequest)
	}

	volunteers := authed.Group("", middleware.RequireRoles(domain.RoleVolunteer))
	{
		volunteers.GET("/registrations/me", h.registration.HandleListMyRegistrations)
		volunteers.POST("/registrations/:eventID", h.registration.HandleRegister)
		volunteers.DELETE("/registrations/:eventID", h.registration.HandleCancel)
	}

	admin := authed.Group("/admin", middleware.RequireRoles(domain.RoleAdmin))
	{
		admin.GET("/events", h.event.HandleAdminListEvents)
		admin.PUT("/events/:eventID/approve", h.event.HandleApproveEvent)
		admin.PUT("/events/:eventID/reject", h.event.HandleRejectEvent)
		admin.DELETE("/events/:eventID", h.event.HandleDeleteEvent)

		admin.GET("/users", h.admin.HandleListUsers)
		admin.PUT("/users/:userID/role", h.admin.HandleChangeRole)
		admin.PUT("/users/:userID/status", h.admin.HandleSetStatus)
		admin.GET("/stats", h.admin.HandleGetStats)
	}

	s.Router.GET("/", v1.HandleHealthcheck)

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.Host
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "VolunteerHub API"
	docs.SwaggerInfo.Description = "Volunteer events, registrations and notifications."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}
