package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/mock/gomock"

	"playdex/internal/sentinel"
	dErrors "playdex/pkg/domain-errors"
)

func (s *ServiceSuite) TestLogout() {
	ctx := context.Background()

	s.Run("Given a live session When logout Then session destroyed", func() {
		sessionID := uuid.New()
		s.mockCodec.EXPECT().Parse("signed-token").Return(sessionID, nil)
		s.mockSessionStore.EXPECT().Delete(gomock.Any(), sessionID).Return(nil)

		s.Require().NoError(s.service.Logout(ctx, "signed-token"))
	})

	s.Run("Given garbage token When logout Then no-op", func() {
		s.mockCodec.EXPECT().Parse("garbage").Return(uuid.Nil, sentinel.ErrInvalidInput)

		s.Require().NoError(s.service.Logout(ctx, "garbage"))
	})

	s.Run("Given already-gone session When logout Then no-op", func() {
		sessionID := uuid.New()
		s.mockCodec.EXPECT().Parse("signed-token").Return(sessionID, nil)
		s.mockSessionStore.EXPECT().Delete(gomock.Any(), sessionID).Return(sentinel.ErrNotFound)

		s.Require().NoError(s.service.Logout(ctx, "signed-token"))
	})

	s.Run("Given store failure When logout Then internal error", func() {
		sessionID := uuid.New()
		s.mockCodec.EXPECT().Parse("signed-token").Return(sessionID, nil)
		s.mockSessionStore.EXPECT().Delete(gomock.Any(), sessionID).Return(errors.New("boom"))

		err := s.service.Logout(ctx, "signed-token")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *ServiceSuite) TestIdentity() {
	ctx := context.Background()

	s.Run("Given authenticated session When identity Then identity returned", func() {
		session := s.newAuthenticatedSession()
		s.mockCodec.EXPECT().Parse("signed-token").Return(session.ID, nil)
		s.mockSessionStore.EXPECT().FindByID(gomock.Any(), session.ID).Return(session, nil)

		identity, err := s.service.Identity(ctx, "signed-token")
		s.Require().NoError(err)
		s.Equal("76561198000000001", identity.SteamID)
		s.Equal("gordon", identity.Persona)
	})

	s.Run("Given pending session When identity Then unauthorized", func() {
		session := s.newPendingSession()
		s.mockCodec.EXPECT().Parse("signed-token").Return(session.ID, nil)
		s.mockSessionStore.EXPECT().FindByID(gomock.Any(), session.ID).Return(session, nil)

		_, err := s.service.Identity(ctx, "signed-token")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("Given expired session When identity Then deleted and unauthorized", func() {
		session := s.newAuthenticatedSession()
		session.ExpiresAt = s.now.Add(-time.Second)
		s.mockCodec.EXPECT().Parse("signed-token").Return(session.ID, nil)
		s.mockSessionStore.EXPECT().FindByID(gomock.Any(), session.ID).Return(session, nil)
		s.mockSessionStore.EXPECT().Delete(gomock.Any(), session.ID).Return(nil)

		_, err := s.service.Identity(ctx, "signed-token")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("Given unknown session When identity Then unauthorized", func() {
		sessionID := uuid.New()
		s.mockCodec.EXPECT().Parse("signed-token").Return(sessionID, nil)
		s.mockSessionStore.EXPECT().FindByID(gomock.Any(), sessionID).Return(nil, sentinel.ErrNotFound)

		_, err := s.service.Identity(ctx, "signed-token")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *ServiceSuite) TestResolveToken() {
	ctx := context.Background()
	session := s.newAuthenticatedSession()
	s.mockCodec.EXPECT().Parse("signed-token").Return(session.ID, nil)
	s.mockSessionStore.EXPECT().FindByID(gomock.Any(), session.ID).Return(session, nil)

	principal, err := s.service.ResolveToken(ctx, "signed-token")
	s.Require().NoError(err)
	s.Equal(session.Identity.SteamID, principal.SteamID)
	s.Equal(session.Identity.Persona, principal.Persona)
	s.Equal(session.Identity.Identifier, principal.ClaimedID)
}

func (s *ServiceSuite) TestSweepExpired() {
	ctx := context.Background()

	s.Run("Given expired sessions When sweep Then count returned", func() {
		s.mockSessionStore.EXPECT().DeleteExpired(gomock.Any(), s.now).Return(3, nil)

		deleted, err := s.service.SweepExpired(ctx)
		s.Require().NoError(err)
		s.Equal(3, deleted)
	})

	s.Run("Given store failure When sweep Then internal error", func() {
		s.mockSessionStore.EXPECT().DeleteExpired(gomock.Any(), s.now).Return(0, errors.New("boom"))

		_, err := s.service.SweepExpired(ctx)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

// Session state transitions covered end to end: a logged-out token can no
// longer resolve an identity even if replayed.
func (s *ServiceSuite) TestLogoutThenResolve() {
	ctx := context.Background()
	session := s.newAuthenticatedSession()

	s.mockCodec.EXPECT().Parse("signed-token").Return(session.ID, nil)
	s.mockSessionStore.EXPECT().Delete(gomock.Any(), session.ID).Return(nil)
	s.Require().NoError(s.service.Logout(ctx, "signed-token"))

	s.mockCodec.EXPECT().Parse("signed-token").Return(session.ID, nil)
	s.mockSessionStore.EXPECT().FindByID(gomock.Any(), session.ID).Return(nil, sentinel.ErrNotFound)

	_, err := s.service.ResolveToken(ctx, "signed-token")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
