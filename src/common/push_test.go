package common

import (
	"context"
	"errors"
	"strings"
	"testing"
	"wurst/src/models"
	"wurst/src/types"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type PushTestSuite struct {
	suite.Suite
	DB *gorm.DB
}

func (s *PushTestSuite) SetupTest() {
	s.DB = newTestDB(&s.Suite)
}

func (s *PushTestSuite) TestSaveTokenUpsertsByToken() {
	token := strings.Repeat("t", 32)
	s.Require().NoError(SaveFCMToken("user-a", token))
	// the same device logs in as someone else
	s.Require().NoError(SaveFCMToken("user-b", token))

	var rows []models.FCMToken
	s.Require().NoError(s.DB.Find(&rows).Error)
	s.Require().Len(rows, 1)
	s.Equal("user-b", rows[0].UID)
}

func (s *PushTestSuite) TestSaveTokenValidation() {
	err := SaveFCMToken("", strings.Repeat("t", 32))
	s.True(errors.Is(err, types.ErrUnauthenticated))

	err = SaveFCMToken("user-a", "short")
	s.True(errors.Is(err, types.ErrInvalidArgument))
}

func (s *PushTestSuite) TestSendToUsersValidatesInput() {
	_, err := SendPushToUsers(context.Background(), nil, "Hallo", "", "")
	s.True(errors.Is(err, types.ErrInvalidArgument))

	tooMany := make([]string, 2001)
	for i := range tooMany {
		tooMany[i] = "u"
	}
	_, err = SendPushToUsers(context.Background(), tooMany, "Hallo", "", "")
	s.True(errors.Is(err, types.ErrInvalidArgument))
}

func (s *PushTestSuite) TestSendWithoutTokensShortCircuits() {
	// No tokens registered: no messaging client is needed at all.
	report, err := SendPushToAllUsers(context.Background(), "Hallo", "Neue Wurst", "/wurst")
	s.Require().NoError(err)
	s.Equal(0, report.TokenCount)
	s.Equal(0, report.SuccessCount)
}

func TestPushTestSuite(t *testing.T) {
	suite.Run(t, new(PushTestSuite))
}
