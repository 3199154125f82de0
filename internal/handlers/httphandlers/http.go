package httphandlers

import (
	"context"
	"math/big"
	"net/url"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"gitlab.com/TitanInd/milestone-escrow/internal/campaignmanager"
	"gitlab.com/TitanInd/milestone-escrow/internal/config"
	"gitlab.com/TitanInd/milestone-escrow/internal/interfaces"
	"gitlab.com/TitanInd/milestone-escrow/internal/lib"
)

type HTTPHandler struct {
	campaignManager *campaignmanager.CampaignManager
	deposits        DepositClaimer
	config          Sanitizer
	clock           lib.Clock
	publicUrl       *url.URL
	log             interfaces.ILogger
}

type Sanitizer interface {
	GetSanitized() interface{}
}

// DepositClaimer checks that a pledge is backed by value that arrived in custody.
// Without one, pledged amounts are taken as given
type DepositClaimer interface {
	Claim(ctx context.Context, txHash common.Hash, from common.Address, amount *big.Int) (release func(), err error)
}

func NewHTTPHandler(campaignManager *campaignmanager.CampaignManager, deposits DepositClaimer, cfg Sanitizer, clock lib.Clock, publicUrl *url.URL, log interfaces.ILogger) *gin.Engine {
	handl := &HTTPHandler{
		campaignManager: campaignManager,
		deposits:        deposits,
		config:          cfg,
		clock:           clock,
		publicUrl:       publicUrl,
		log:             log,
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), handl.requestLogger)

	r.GET("/healthcheck", handl.HealthCheck)
	r.GET("/config", handl.GetConfig)

	r.GET("/campaigns", handl.GetCampaigns)
	r.POST("/campaigns", handl.CreateCampaign)
	r.GET("/campaigns/:ID", handl.GetCampaign)
	r.POST("/campaigns/:ID", handl.Receive)
	r.POST("/campaigns/:ID/pledge", handl.Pledge)
	r.POST("/campaigns/:ID/withdraw", handl.Withdraw)
	r.POST("/campaigns/:ID/finalize", handl.Finalize)
	r.POST("/campaigns/:ID/refund", handl.ClaimRefund)
	r.POST("/campaigns/:ID/cancel", handl.CancelSuccessful)
	r.GET("/campaigns/:ID/contributions/:addr", handl.GetContribution)
	r.GET("/campaigns/:ID/events", handl.GetEvents)

	r.GET("/campaigns/:ID/milestones", handl.GetMilestones)
	r.GET("/campaigns/:ID/milestones/:index", handl.GetMilestone)
	r.POST("/campaigns/:ID/milestones/:index/vote/start", handl.StartMilestoneVote)
	r.POST("/campaigns/:ID/milestones/:index/vote", handl.VoteOnMilestone)
	r.POST("/campaigns/:ID/milestones/:index/vote/finalize", handl.FinalizeMilestoneVote)

	err := r.SetTrustedProxies(nil)
	if err != nil {
		panic(err)
	}

	return r
}

func (h *HTTPHandler) HealthCheck(ctx *gin.Context) {
	ctx.JSON(200, gin.H{
		"status":  "healthy",
		"version": config.BuildVersion,
		"time":    formatTime(h.clock.Now()),
	})
}

func (h *HTTPHandler) requestLogger(ctx *gin.Context) {
	start := time.Now()
	ctx.Next()
	h.log.Debugf("%s %s %d %s", ctx.Request.Method, ctx.Request.URL.Path, ctx.Writer.Status(), time.Since(start))
}
