// controllers/webauthn_controller.go
package controllers

import (
	"context"
	"net/http"
	"time"

	"Gin_postgres_redis_tool_lending/app"
	"Gin_postgres_redis_tool_lending/db"
	"Gin_postgres_redis_tool_lending/models"

	"github.com/gin-gonic/gin"
	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const ceremonyTimeout = 3 * time.Second

func registrationOpts() []webauthn.RegistrationOption {
	return []webauthn.RegistrationOption{
		webauthn.WithResidentKeyRequirement(protocol.ResidentKeyRequirementRequired),
		webauthn.WithAuthenticatorSelection(protocol.AuthenticatorSelection{
			UserVerification: protocol.VerificationRequired,
		}),
	}
}

// ===== 添加通行密钥（已登录） =====

// POST /api/credentials/add/begin
func (s *Srv) BeginAddCredential(c *gin.Context) {
	sess, ok := actor(c)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), ceremonyTimeout)
	defer cancel()

	op, err := s.Repo.FindOperatorByID(ctx, sess.OperatorID)
	if err != nil {
		respondError(c, s.Log, err)
		return
	}
	wUser, err := s.waUserFor(ctx, op)
	if err != nil {
		respondError(c, s.Log, err)
		return
	}

	opts, sd, err := s.WA.BeginRegistration(wUser, registrationOpts()...)
	if err != nil {
		respondError(c, s.Log, errors.Wrap(err, "begin registration"))
		return
	}
	if err := s.Sess.SaveReg(ctx, op.ID, sd); err != nil {
		respondError(c, s.Log, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"opts": opts})
}

// POST /api/credentials/add/finish
func (s *Srv) FinishAddCredential(c *gin.Context) {
	sess, ok := actor(c)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), ceremonyTimeout)
	defer cancel()

	op, err := s.Repo.FindOperatorByID(ctx, sess.OperatorID)
	if err != nil {
		respondError(c, s.Log, err)
		return
	}
	wUser, err := s.waUserFor(ctx, op)
	if err != nil {
		respondError(c, s.Log, err)
		return
	}
	sd, err := s.Sess.LoadReg(ctx, op.ID)
	if err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "session expired or invalid"})
		return
	}

	cred, err := s.WA.FinishRegistration(wUser, *sd, c.Request)
	if err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	if err := s.Repo.AddCredential(ctx, &models.Credential{
		OperatorID:      op.ID,
		CredentialID:    cred.ID,
		PublicKey:       cred.PublicKey,
		AttestationType: cred.AttestationType,
		AAGUID:          cred.Authenticator.AAGUID,
		SignCount:       cred.Authenticator.SignCount,
		CloneWarning:    cred.Authenticator.CloneWarning,
		BackupEligible:  cred.Flags.BackupEligible,
		BackupState:     cred.Flags.BackupState,
	}); err != nil {
		respondError(c, s.Log, errors.Wrap(err, "add credential"))
		return
	}
	s.Log.Info("passkey added", zap.String("operator_id", op.ID))
	c.JSON(http.StatusOK, app.H{"ok": true})
}

// ===== 通行密钥登录 =====

type loginBeginReq struct {
	Email        string `json:"email"`
	Discoverable bool   `json:"discoverable"`
}

type loginBeginResp struct {
	Options   *protocol.CredentialAssertion `json:"options"`
	SessionID string                        `json:"sessionId"`
}

// POST /webauthn/login/begin
func (s *Srv) BeginLogin(c *gin.Context) {
	var req loginBeginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "bad request"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), ceremonyTimeout)
	defer cancel()

	var (
		opts *protocol.CredentialAssertion
		sd   *webauthn.SessionData
		err  error
	)
	if req.Discoverable || req.Email == "" {
		opts, sd, err = s.WA.BeginDiscoverableLogin(webauthn.WithUserVerification(protocol.VerificationRequired))
	} else {
		op, ferr := s.Repo.FindOperatorByEmail(ctx, req.Email)
		if ferr != nil {
			respondError(c, s.Log, ferr)
			return
		}
		wUser, werr := s.waUserFor(ctx, op)
		if werr != nil {
			respondError(c, s.Log, werr)
			return
		}
		opts, sd, err = s.WA.BeginLogin(wUser, webauthn.WithUserVerification(protocol.VerificationRequired))
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}

	sid := uuid.NewString()
	if err := s.Sess.SaveAuth(ctx, sid, sd); err != nil {
		respondError(c, s.Log, err)
		return
	}
	c.JSON(http.StatusOK, loginBeginResp{Options: opts, SessionID: sid})
}

// POST /webauthn/login/finish?sessionId=...[&email=...]
func (s *Srv) FinishLogin(c *gin.Context) {
	sid := c.Query("sessionId")
	if sid == "" {
		c.JSON(http.StatusBadRequest, app.H{"error": "missing sessionId"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), ceremonyTimeout)
	defer cancel()

	sd, err := s.Sess.LoadAuth(ctx, sid)
	if err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "session expired or invalid"})
		return
	}

	var (
		operatorID string
		cred       *webauthn.Credential
	)
	if email := c.Query("email"); email != "" {
		op, ferr := s.Repo.FindOperatorByEmail(ctx, email)
		if ferr != nil {
			respondError(c, s.Log, ferr)
			return
		}
		wUser, werr := s.waUserFor(ctx, op)
		if werr != nil {
			respondError(c, s.Log, werr)
			return
		}
		if cred, err = s.WA.FinishLogin(wUser, *sd, c.Request); err != nil {
			c.JSON(http.StatusUnauthorized, app.H{"error": err.Error()})
			return
		}
		operatorID = op.ID
	} else {
		handler := func(rawID, _ []byte) (webauthn.User, error) {
			op, ferr := s.Repo.FindOperatorByCredentialID(ctx, rawID)
			if ferr != nil {
				if errors.Is(ferr, db.ErrOperatorNotFound) {
					return nil, protocol.ErrBadRequest.WithDetails("credential not found")
				}
				return nil, ferr
			}
			return s.waUserFor(ctx, op)
		}
		user, found, ferr := s.WA.FinishPasskeyLogin(handler, *sd, c.Request)
		if ferr != nil {
			c.JSON(http.StatusUnauthorized, app.H{"error": ferr.Error()})
			return
		}
		cred = found
		operatorID = user.(*waUser).op.ID
	}

	if err := s.Repo.UpdateCredentialCounter(ctx, cred.ID, cred.Authenticator.SignCount, cred.Authenticator.CloneWarning); err != nil {
		s.Log.Warn("update sign count", zap.String("operator_id", operatorID), zap.Error(err))
	}
	if cred.Authenticator.CloneWarning {
		s.Log.Warn("credential clone warning", zap.String("operator_id", operatorID))
	}

	if err := s.issueSession(ctx, c.Writer, operatorID, c.ClientIP(), c.Request.UserAgent()); err != nil {
		s.Log.Error("create app session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, app.H{"error": "create app session failed"})
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true, "redirect": "/dashboard"})
}
