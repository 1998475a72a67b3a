package app

import (
	"net/http"

	"github.com/deolamide/wallex/internal/handler"
	"github.com/deolamide/wallex/internal/middleware"
)

func (app *Application) routes() http.Handler {
	mux := http.NewServeMux()

	middlewareRepo := middleware.New(app.errorHandler, app.Logger, app.DB.User(), &app.Config)

	healthHandler := handler.NewHealthHandler(app.errorHandler)

	authHandler := handler.NewAuthHandler(&handler.AuthHandler{
		DB:         app.DB,
		Audit:      app.Audit,
		Helper:     app.helper,
		Mailer:     app.Mailer,
		Config:     &app.Config,
		ErrHandler: app.errorHandler,
	})

	userHandler := handler.NewUserHandler(&handler.UserHandler{
		ProfileRepo:  app.DB.Profile(),
		Audit:        app.Audit,
		FileUploader: app.FileUploader,
		Helper:       app.helper,
		ErrHandler:   app.errorHandler,
	})

	walletHandler := handler.NewWalletHandler(&handler.WalletHandler{
		WalletRepo: app.DB.Wallet(),
		Audit:      app.Audit,
		Helper:     app.helper,
		ErrHandler: app.errorHandler,
	})

	transactionHandler := handler.NewTransactionHandler(&handler.TransactionHandler{
		Engine:          app.Engine,
		TransactionRepo: app.DB.Transaction(),
		WalletRepo:      app.DB.Wallet(),
		ErrHandler:      app.errorHandler,
	})

	beneficiaryHandler := handler.NewBeneficiaryHandler(&handler.BeneficiaryHandler{
		BeneficiaryRepo: app.DB.Beneficiary(),
		WalletRepo:      app.DB.Wallet(),
		Audit:           app.Audit,
		Helper:          app.helper,
		ErrHandler:      app.errorHandler,
	})

	dashboardHandler := handler.NewDashboardHandler(&handler.DashboardHandler{
		MetricRepo: app.DB.Metric(),
		Cache:      app.Cache,
		ErrHandler: app.errorHandler,
	})

	mux.HandleFunc("GET /status", healthHandler.HandleHealthCheck)

	mux.HandleFunc("POST /auth/register", authHandler.HandleAuthRegister)
	mux.HandleFunc("POST /auth/login", authHandler.HandleAuthLogin)

	requireAuth := func(fn http.HandlerFunc) http.Handler {
		return middlewareRepo.RequireAuthenticatedUser(fn)
	}
	requireAdmin := func(fn http.HandlerFunc) http.Handler {
		return middlewareRepo.RequireAdminUser(fn)
	}

	mux.Handle("GET /auth/me", requireAuth(authHandler.HandleAuthenticatedUser))

	mux.Handle("GET /profile", requireAuth(userHandler.HandleUserProfile))
	mux.Handle("PUT /profile", requireAuth(userHandler.HandleUpdateProfile))
	mux.Handle("POST /profile/picture", requireAuth(userHandler.HandleProfilePicture))

	mux.Handle("GET /wallets", requireAuth(walletHandler.HandleUserWallets))
	mux.Handle("POST /wallets", requireAuth(walletHandler.HandleCreateWallet))
	mux.Handle("GET /wallets/{id}", requireAuth(walletHandler.HandleWalletDetails))
	mux.Handle("GET /wallets/{id}/balance", requireAuth(walletHandler.HandleWalletBalance))

	mux.Handle("POST /transactions/transfer", requireAuth(transactionHandler.HandleTransferMoney))
	mux.Handle("POST /transactions/deposit", requireAuth(transactionHandler.HandleDeposit))
	mux.Handle("POST /transactions/withdraw", requireAuth(transactionHandler.HandleWithdraw))
	mux.Handle("GET /transactions", requireAuth(transactionHandler.HandleUserTransactions))
	mux.Handle("GET /transactions/{id}", requireAuth(transactionHandler.HandleTransactionDetails))

	mux.Handle("POST /beneficiaries", requireAuth(beneficiaryHandler.HandleCreateBeneficiary))
	mux.Handle("GET /beneficiaries", requireAuth(beneficiaryHandler.HandleUserBeneficiaries))

	mux.Handle("GET /dashboard", requireAdmin(dashboardHandler.HandleDashboardMetrics))
	mux.Handle("GET /metrics", requireAdmin(app.Metrics.Handler().ServeHTTP))

	return middlewareRepo.LogAccess(middlewareRepo.RecoverPanic(middlewareRepo.Authenticate(mux)))
}
