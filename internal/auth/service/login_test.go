package service

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/mock/gomock"

	"playdex/internal/auth/models"
	"playdex/internal/sentinel"
	"playdex/internal/steam"
	dErrors "playdex/pkg/domain-errors"
)

func (s *ServiceSuite) TestInitiate() {
	ctx := context.Background()

	s.Run("Given a browser When initiate Then pending session and provider redirect", func() {
		var created *models.Session
		s.mockSessionStore.EXPECT().Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, session *models.Session) error {
				created = session
				return nil
			})
		s.mockCodec.EXPECT().Issue(gomock.Any(), s.now).Return("signed-token", nil)
		s.mockProvider.EXPECT().AuthURL().Return("https://steamcommunity.com/openid/login?openid.mode=checkid_setup")

		result, err := s.service.Initiate(ctx, "Mozilla/5.0 (X11; Linux x86_64) Chrome/120.0")
		s.Require().NoError(err)
		s.Equal("signed-token", result.Token)
		s.Contains(result.RedirectURL, "checkid_setup")

		s.Require().NotNil(created)
		s.Equal(models.StatePendingProvider, created.State)
		s.Nil(created.Identity)
		s.Equal(s.now.Add(24*time.Hour), created.ExpiresAt)
	})

	s.Run("Given store failure When initiate Then internal error", func() {
		s.mockSessionStore.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("boom"))

		_, err := s.service.Initiate(ctx, "curl/8.0")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *ServiceSuite) TestCompleteCallback_Success() {
	ctx := context.Background()
	session := s.newPendingSession()
	query := url.Values{"openid.mode": {"id_res"}}

	s.mockCodec.EXPECT().Parse("signed-token").Return(session.ID, nil)
	s.mockSessionStore.EXPECT().FindByID(gomock.Any(), session.ID).Return(session, nil)
	s.mockProvider.EXPECT().VerifyCallback(gomock.Any(), query).
		Return("https://steamcommunity.com/openid/id/76561198000000001", "76561198000000001", nil)
	s.mockProvider.EXPECT().PlayerSummary(gomock.Any(), "76561198000000001").
		Return(&steam.PlayerSummary{
			SteamID:     "76561198000000001",
			PersonaName: "gordon",
			AvatarFull:  "https://avatars.example/full.jpg",
			ProfileURL:  "https://steamcommunity.com/id/gordon/",
		}, nil)
	s.mockSessionStore.EXPECT().Update(gomock.Any(), session).Return(nil)

	err := s.service.CompleteCallback(ctx, "signed-token", query)
	s.Require().NoError(err)
	s.Equal(models.StateAuthenticated, session.State)
	s.Require().NotNil(session.Identity)
	s.Equal("gordon", session.Identity.Persona)
	s.Equal("https://steamcommunity.com/openid/id/76561198000000001", session.Identity.Identifier)
}

func (s *ServiceSuite) TestCompleteCallback_Failures() {
	ctx := context.Background()
	query := url.Values{"openid.mode": {"id_res"}}

	s.Run("Given bad token When callback Then unauthorized", func() {
		s.mockCodec.EXPECT().Parse("garbage").Return(uuid.Nil, sentinel.ErrInvalidInput)

		err := s.service.CompleteCallback(ctx, "garbage", query)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("Given expired pending session When callback Then session deleted and unauthorized", func() {
		session := models.NewPending(uuid.New(), "Chrome on Linux", s.now.Add(-48*time.Hour), 24*time.Hour)
		s.mockCodec.EXPECT().Parse("signed-token").Return(session.ID, nil)
		s.mockSessionStore.EXPECT().FindByID(gomock.Any(), session.ID).Return(session, nil)
		s.mockSessionStore.EXPECT().Delete(gomock.Any(), session.ID).Return(nil)

		err := s.service.CompleteCallback(ctx, "signed-token", query)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("Given replayed callback on authenticated session Then identity preserved", func() {
		session := s.newAuthenticatedSession()
		s.mockCodec.EXPECT().Parse("signed-token").Return(session.ID, nil)
		s.mockSessionStore.EXPECT().FindByID(gomock.Any(), session.ID).Return(session, nil)
		s.mockProvider.EXPECT().VerifyCallback(gomock.Any(), gomock.Any()).Times(0)

		err := s.service.CompleteCallback(ctx, "signed-token", query)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		s.Equal(models.StateAuthenticated, session.State)
		s.Require().NotNil(session.Identity)
		s.Equal("gordon", session.Identity.Persona)
	})

	s.Run("Given anonymous session When callback Then unauthorized without reset churn", func() {
		session := s.newPendingSession()
		session.Reset()
		s.mockCodec.EXPECT().Parse("signed-token").Return(session.ID, nil)
		s.mockSessionStore.EXPECT().FindByID(gomock.Any(), session.ID).Return(session, nil)
		s.mockProvider.EXPECT().VerifyCallback(gomock.Any(), gomock.Any()).Times(0)

		err := s.service.CompleteCallback(ctx, "signed-token", query)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		s.Equal(models.StateAnonymous, session.State)
	})

	s.Run("Given forged assertion When callback Then session stays anonymous", func() {
		session := s.newPendingSession()
		s.mockCodec.EXPECT().Parse("signed-token").Return(session.ID, nil)
		s.mockSessionStore.EXPECT().FindByID(gomock.Any(), session.ID).Return(session, nil)
		s.mockProvider.EXPECT().VerifyCallback(gomock.Any(), query).
			Return("", "", sentinel.ErrVerificationFailed)
		s.mockSessionStore.EXPECT().Update(gomock.Any(), session).Return(nil)

		err := s.service.CompleteCallback(ctx, "signed-token", query)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		s.Equal(models.StateAnonymous, session.State)
		s.Nil(session.Identity)
	})

	s.Run("Given provider outage When callback Then unavailable", func() {
		session := s.newPendingSession()
		s.mockCodec.EXPECT().Parse("signed-token").Return(session.ID, nil)
		s.mockSessionStore.EXPECT().FindByID(gomock.Any(), session.ID).Return(session, nil)
		s.mockProvider.EXPECT().VerifyCallback(gomock.Any(), query).
			Return("", "", sentinel.ErrUnavailable)
		s.mockSessionStore.EXPECT().Update(gomock.Any(), session).Return(nil)

		err := s.service.CompleteCallback(ctx, "signed-token", query)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
		s.Equal(models.StateAnonymous, session.State)
	})

	s.Run("Given profile lookup failure When callback Then session stays anonymous", func() {
		session := s.newPendingSession()
		s.mockCodec.EXPECT().Parse("signed-token").Return(session.ID, nil)
		s.mockSessionStore.EXPECT().FindByID(gomock.Any(), session.ID).Return(session, nil)
		s.mockProvider.EXPECT().VerifyCallback(gomock.Any(), query).
			Return("https://steamcommunity.com/openid/id/76561198000000001", "76561198000000001", nil)
		s.mockProvider.EXPECT().PlayerSummary(gomock.Any(), "76561198000000001").
			Return(nil, sentinel.ErrNotFound)
		s.mockSessionStore.EXPECT().Update(gomock.Any(), session).Return(nil)

		err := s.service.CompleteCallback(ctx, "signed-token", query)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		s.Equal(models.StateAnonymous, session.State)
	})
}
