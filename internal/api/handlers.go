package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openvending/vending/internal/application"
	"github.com/openvending/vending/internal/domain"
	"github.com/openvending/vending/internal/protocol"
)

type supportedRequest struct {
	APIVersion  int               `json:"apiVersion"`
	SkuType     string            `json:"type"`
	PackageName string            `json:"package"`
	Extras      map[string]string `json:"extras"`
}

func (s *Server) handleIsBillingSupported(c *gin.Context) {
	var req supportedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result := s.billing.IsBillingSupported(req.APIVersion, domain.SkuType(req.SkuType), req.PackageName, req.Extras)
	c.JSON(http.StatusOK, gin.H{"result": result.Map()})
}

type skuDetailsRequest struct {
	Account     string            `json:"account"`
	PackageName string            `json:"package"`
	APIVersion  int               `json:"apiVersion"`
	SkuType     string            `json:"type"`
	SkuPackage  string            `json:"skuPackage"`
	SkuIDs      []string          `json:"skuIds"`
	SDKVersion  int               `json:"sdkVersion"`
	Extras      map[string]string `json:"extras"`
}

func (s *Server) handleGetSkuDetails(c *gin.Context) {
	var req skuDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	details, err := s.billing.GetSkuDetails(c.Request.Context(), application.SkuDetailsCall{
		Account:     req.Account,
		PackageName: req.PackageName,
		Params: protocol.SkuDetailsParams{
			APIVersion: req.APIVersion,
			SkuType:    domain.SkuType(req.SkuType),
			SkuPackage: req.SkuPackage,
			SkuIDs:     req.SkuIDs,
			SDKVersion: req.SDKVersion,
			Extras:     req.Extras,
		},
	})
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"result": resultFromError(err).Map()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"result":      domain.NewResultBundle(domain.ResultOK).Map(),
		"detailsList": details,
	})
}

type purchaseTokenRequest struct {
	Account       string            `json:"account"`
	PackageName   string            `json:"package"`
	PurchaseToken string            `json:"purchaseToken"`
	Extras        map[string]string `json:"extras"`
}

func (s *Server) handleConsumePurchase(c *gin.Context) {
	var req purchaseTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := s.billing.ConsumePurchase(c.Request.Context(), application.PurchaseTokenCall{
		Account:       req.Account,
		PackageName:   req.PackageName,
		PurchaseToken: req.PurchaseToken,
		Extras:        req.Extras,
	})
	if err != nil {
		result = resultFromError(err)
	}
	c.JSON(http.StatusOK, gin.H{"result": result.Map()})
}

func (s *Server) handleAcknowledgePurchase(c *gin.Context) {
	var req purchaseTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := s.billing.AcknowledgePurchase(c.Request.Context(), application.PurchaseTokenCall{
		Account:       req.Account,
		PackageName:   req.PackageName,
		PurchaseToken: req.PurchaseToken,
		Extras:        req.Extras,
	})
	if err != nil {
		result = resultFromError(err)
	}
	c.JSON(http.StatusOK, gin.H{"result": result.Map()})
}

type historyRequest struct {
	Account           string            `json:"account"`
	PackageName       string            `json:"package"`
	APIVersion        int               `json:"apiVersion"`
	SkuType           string            `json:"type"`
	ContinuationToken string            `json:"continuationToken"`
	Extras            map[string]string `json:"extras"`
}

func (s *Server) handleGetPurchaseHistory(c *gin.Context) {
	var req historyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	history, err := s.billing.GetPurchaseHistory(c.Request.Context(), application.PurchaseHistoryCall{
		Account:     req.Account,
		PackageName: req.PackageName,
		Params: protocol.PurchaseHistoryParams{
			APIVersion:        req.APIVersion,
			SkuType:           domain.SkuType(req.SkuType),
			ContinuationToken: req.ContinuationToken,
			Extras:            req.Extras,
		},
	})
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"result": resultFromError(err).Map()})
		return
	}

	skus := make([]string, 0, len(history.Items))
	data := make([]string, 0, len(history.Items))
	signatures := make([]string, 0, len(history.Items))
	for _, item := range history.Items {
		skus = append(skus, item.SKU)
		data = append(data, item.Data)
		signatures = append(signatures, item.Signature)
	}
	result := domain.NewResultBundle(history.Code)
	result.Put(domain.KeyPurchaseItemList, skus)
	result.Put(domain.KeyPurchaseDataList, data)
	result.Put(domain.KeyDataSignatureList, signatures)
	if history.ContinuationToken != "" {
		result.Put(domain.KeyContinuationToken, history.ContinuationToken)
	}
	c.JSON(http.StatusOK, gin.H{"result": result.Map()})
}

type purchasesRequest struct {
	Account     string `json:"account"`
	PackageName string `json:"package"`
	SkuType     string `json:"type"`
}

func (s *Server) handleGetPurchases(c *gin.Context) {
	var req purchasesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := s.billing.GetPurchases(req.Account, req.PackageName, domain.SkuType(req.SkuType))
	if err != nil {
		result = resultFromError(err)
	}
	c.JSON(http.StatusOK, gin.H{"result": result.Map()})
}

type startFlowRequest struct {
	Account             string            `json:"account"`
	PackageName         string            `json:"package"`
	APIVersion          int               `json:"apiVersion"`
	SkuType             string            `json:"type"`
	SKU                 string            `json:"sku"`
	SkuParams           map[string]string `json:"skuParams"`
	SerializedDocIDs    []string          `json:"serializedDocIds"`
	OfferIDTokens       []string          `json:"offerIdTokens"`
	OldSkuPurchaseToken string            `json:"oldSkuPurchaseToken"`
	OldSkuPurchaseID    string            `json:"oldSkuPurchaseId"`
}

func (s *Server) handleStartFlow(c *gin.Context) {
	var req startFlowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	view, err := s.flows.StartFlow(c.Request.Context(), application.StartFlowParams{
		Account:     req.Account,
		PackageName: req.PackageName,
		Params: protocol.BuyFlowParams{
			APIVersion:          req.APIVersion,
			SkuType:             domain.SkuType(req.SkuType),
			SKU:                 req.SKU,
			SkuParams:           req.SkuParams,
			SerializedDocIDs:    req.SerializedDocIDs,
			OfferIDTokens:       req.OfferIDTokens,
			OldSkuPurchaseToken: req.OldSkuPurchaseToken,
			OldSkuPurchaseID:    req.OldSkuPurchaseID,
		},
	})
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"result": resultFromError(err).Map()})
		return
	}
	c.JSON(http.StatusOK, flowViewFromDomain(view))
}

type clickRequest struct {
	Action *actionDTO `json:"action"`
}

func (s *Server) handleSubmitClick(c *gin.Context) {
	var req clickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	view, err := s.flows.SubmitClick(c.Request.Context(), c.Param("token"), req.Action.toDomain())
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"result": resultFromError(err).Map()})
		return
	}
	c.JSON(http.StatusOK, flowViewFromDomain(view))
}

type passwordRequest struct {
	Password      string `json:"password"`
	DisablePrompt bool   `json:"disablePrompt"`
}

func (s *Server) handleSubmitPassword(c *gin.Context) {
	var req passwordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	view, err := s.flows.SubmitPassword(c.Request.Context(), c.Param("token"), req.Password, req.DisablePrompt)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"result": resultFromError(err).Map()})
		return
	}
	c.JSON(http.StatusOK, flowViewFromDomain(view))
}

func (s *Server) handleResumePaymentMethod(c *gin.Context) {
	view, err := s.flows.ResumePaymentMethod(c.Request.Context(), c.Param("token"))
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"result": resultFromError(err).Map()})
		return
	}
	c.JSON(http.StatusOK, flowViewFromDomain(view))
}

func (s *Server) handleCancelFlow(c *gin.Context) {
	view, err := s.flows.CancelFlow(c.Request.Context(), c.Param("token"))
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"result": resultFromError(err).Map()})
		return
	}
	c.JSON(http.StatusOK, flowViewFromDomain(view))
}
