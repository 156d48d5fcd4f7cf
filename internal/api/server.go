// Package api exposes the billing engine as an HTTP RPC surface. The
// handlers validate nothing beyond JSON shape; parameter validation and
// code mapping live in the application layer and resultFromError.
package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/openvending/vending/internal/application"
	"github.com/openvending/vending/internal/domain"
)

type Server struct {
	billing *application.BillingService
	flows   *application.BuyFlowService
	log     *logrus.Entry
	router  *gin.Engine
}

func NewServer(billing *application.BillingService, flows *application.BuyFlowService) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		billing: billing,
		flows:   flows,
		log:     logrus.WithField("component", "api"),
		router:  gin.New(),
	}
	s.router.Use(gin.Recovery())
	s.routes()
	return s
}

func (s *Server) routes() {
	billing := s.router.Group("/billing")
	billing.POST("/supported", s.handleIsBillingSupported)
	billing.POST("/skuDetails", s.handleGetSkuDetails)
	billing.POST("/consume", s.handleConsumePurchase)
	billing.POST("/acknowledge", s.handleAcknowledgePurchase)
	billing.POST("/history", s.handleGetPurchaseHistory)
	billing.POST("/purchases", s.handleGetPurchases)

	flow := s.router.Group("/flow")
	flow.POST("/start", s.handleStartFlow)
	flow.POST("/:token/click", s.handleSubmitClick)
	flow.POST("/:token/password", s.handleSubmitPassword)
	flow.POST("/:token/paymentMethodDone", s.handleResumePaymentMethod)
	flow.POST("/:token/cancel", s.handleCancelFlow)
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) Run(addr string) error {
	s.log.WithField("addr", addr).Info("billing rpc listening")
	return s.router.Run(addr)
}

// resultFromError maps engine faults onto the fixed response-code domain.
// Backend-declared failures never reach this path; they travel as
// bundles.
func resultFromError(err error) *domain.ResultBundle {
	var transportErr *domain.TransportError
	if errors.As(err, &transportErr) {
		return domain.NewResultBundleWithMessage(domain.ResultBillingUnavailable, err.Error())
	}
	var protocolErr *domain.ProtocolError
	if errors.As(err, &protocolErr) {
		return domain.NewResultBundleWithMessage(domain.ResultError, err.Error())
	}
	switch {
	case errors.Is(err, domain.ErrUnsupportedSkuType),
		errors.Is(err, domain.ErrUnsupportedAPI),
		errors.Is(err, domain.ErrMissingPackageName),
		errors.Is(err, domain.ErrMissingSku),
		errors.Is(err, domain.ErrMissingAccount),
		errors.Is(err, domain.ErrMissingPurchaseToken),
		errors.Is(err, domain.ErrFlowNotFound),
		errors.Is(err, domain.ErrFlowFinished),
		errors.Is(err, domain.ErrUnexpectedFlowState):
		return domain.NewResultBundleWithMessage(domain.ResultDeveloperError, err.Error())
	case errors.Is(err, domain.ErrNoAccount),
		errors.Is(err, domain.ErrTokenUnavailable),
		errors.Is(err, domain.ErrConsentRequired):
		return domain.NewResultBundleWithMessage(domain.ResultBillingUnavailable, err.Error())
	default:
		return domain.NewResultBundleWithMessage(domain.ResultError, err.Error())
	}
}
