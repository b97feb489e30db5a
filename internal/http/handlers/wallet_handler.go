// Agent wallet HTTP handlers.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agritrust/go-agritrust-backend/internal/services"
)

// SignMessageRequest is the JSON payload for signing a message.
type SignMessageRequest struct {
	Message string `json:"message" binding:"required"`
}

// VerifyMessageRequest is the JSON payload for verifying a signed message.
type VerifyMessageRequest struct {
	Message   string `json:"message" binding:"required"`
	Signature string `json:"signature" binding:"required"`
}

// SendTransactionRequest is the JSON payload for an agent-initiated transfer.
type SendTransactionRequest struct {
	To    string `json:"to" binding:"required"`
	Value string `json:"value" binding:"required"`
	Data  string `json:"data"`
}

// ListWallets godoc
// @ID          listWallets
// @Summary     List agent wallets
// @Description Returns the identifiers of all loaded agent wallets.
// @Tags        Wallets
// @Produce     json
//
// @Success     200  {object}  map[string][]string
// @Router      /wallets [get]
func (h *Handlers) ListWallets(c *gin.Context) {
	ok(c, http.StatusOK, gin.H{"wallets": h.wallets.List()})
}

// CreateWallet godoc
// @ID          createWallet
// @Summary     Create an agent wallet
// @Description Generates a fresh keypair for the agent and returns the address plus private key. The key is returned once and never persisted server-side.
// @Tags        Wallets
// @Produce     json
//
// @Param       agentId  path  string  true  "Agent identifier"
//
// @Success     201  {object}  services.WalletInfo
// @Failure     500  {object}  handlers.ErrorResponse  "Key generation failed"
// @Router      /wallets/{agentId} [post]
func (h *Handlers) CreateWallet(c *gin.Context) {
	info, err := h.wallets.Create(c.Request.Context(), c.Param("agentId"))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusCreated, info)
}

// WalletAgentBalance godoc
// @ID          walletAgentBalance
// @Summary     Agent wallet balance
// @Description Returns the on-chain MATIC balance of the agent's wallet. Unknown agents fall back to the system wallet.
// @Tags        Wallets
// @Produce     json
//
// @Param       agentId  path  string  true  "Agent identifier"
//
// @Success     200  {object}  map[string]string
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown agent"
// @Failure     502  {object}  handlers.ErrorResponse  "Chain unavailable"
// @Router      /wallets/{agentId}/balance [get]
func (h *Handlers) WalletAgentBalance(c *gin.Context) {
	agentID := c.Param("agentId")
	balance, err := h.wallets.Balance(c.Request.Context(), agentID)
	switch {
	case errors.Is(err, services.ErrUnknownWallet):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
		return
	case err != nil:
		fail(c, http.StatusBadGateway, ErrCodeChainUnavailable, err.Error())
		return
	}
	ok(c, http.StatusOK, gin.H{"agentId": agentID, "balance": balance, "unit": "MATIC"})
}

// WalletContext godoc
// @ID          walletContext
// @Summary     Agent wallet context
// @Description Returns address, balance, and network details for the agent's wallet.
// @Tags        Wallets
// @Produce     json
//
// @Param       agentId  path  string  true  "Agent identifier"
//
// @Success     200  {object}  services.WalletContext
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown agent"
// @Failure     502  {object}  handlers.ErrorResponse  "Chain unavailable"
// @Router      /wallets/{agentId}/context [get]
func (h *Handlers) WalletContext(c *gin.Context) {
	wctx, err := h.wallets.Context(c.Request.Context(), c.Param("agentId"))
	switch {
	case errors.Is(err, services.ErrUnknownWallet):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
		return
	case err != nil:
		fail(c, http.StatusBadGateway, ErrCodeChainUnavailable, err.Error())
		return
	}
	ok(c, http.StatusOK, wctx)
}

// SignMessage godoc
// @ID          signMessage
// @Summary     Sign a message
// @Description Produces an EIP-191 personal-message signature with the agent's key.
// @Tags        Wallets
// @Accept      json
// @Produce     json
//
// @Param       agentId  path  string  true  "Agent identifier"
// @Param       body     body  handlers.SignMessageRequest  true  "Message to sign"
//
// @Success     200  {object}  map[string]string
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown agent"
// @Router      /wallets/{agentId}/sign [post]
func (h *Handlers) SignMessage(c *gin.Context) {
	var req SignMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message is required")
		return
	}

	agentID := c.Param("agentId")
	sig, err := h.wallets.SignMessage(agentID, req.Message)
	switch {
	case errors.Is(err, services.ErrUnknownWallet):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, gin.H{"agentId": agentID, "message": req.Message, "signature": sig})
}

// VerifyMessage godoc
// @ID          verifyMessage
// @Summary     Verify a signed message
// @Description Recovers the signer address from an EIP-191 signature.
// @Tags        Wallets
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.VerifyMessageRequest  true  "Message and signature"
//
// @Success     200  {object}  map[string]string
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid signature"
// @Router      /wallets/verify [post]
func (h *Handlers) VerifyMessage(c *gin.Context) {
	var req VerifyMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message and signature are required")
		return
	}

	signer, err := h.wallets.VerifyMessage(req.Message, req.Signature)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	ok(c, http.StatusOK, gin.H{"signer": signer, "valid": "true"})
}

// SendTransaction godoc
// @ID          sendTransaction
// @Summary     Send a transaction from an agent wallet
// @Description Transfers MATIC (optionally with calldata) signed by the agent's key and waits for inclusion.
// @Tags        Wallets
// @Accept      json
// @Produce     json
//
// @Param       agentId  path  string  true  "Agent identifier"
// @Param       body     body  handlers.SendTransactionRequest  true  "Transfer details"
//
// @Success     200  {object}  map[string]string
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown agent"
// @Failure     502  {object}  handlers.ErrorResponse  "Transaction failed"
// @Router      /wallets/{agentId}/transactions [post]
func (h *Handlers) SendTransaction(c *gin.Context) {
	var req SendTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "to and value are required")
		return
	}

	agentID := c.Param("agentId")
	txHash, err := h.wallets.Send(c.Request.Context(), agentID, req.To, req.Value, req.Data)
	switch {
	case errors.Is(err, services.ErrInvalidAddress),
		errors.Is(err, services.ErrInvalidAmount):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	case errors.Is(err, services.ErrUnknownWallet):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
		return
	case err != nil:
		fail(c, http.StatusBadGateway, ErrCodePaymentFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, gin.H{"agentId": agentID, "txHash": txHash})
}
