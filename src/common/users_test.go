package common

import (
	"context"
	"testing"
	"wurst/src/models"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type UsersTestSuite struct {
	suite.Suite
	DB *gorm.DB
}

func (s *UsersTestSuite) SetupTest() {
	s.DB = newTestDB(&s.Suite)
}

func (s *UsersTestSuite) TestDisplayNameResolution() {
	s.Require().NoError(s.DB.Create(&models.User{UID: "uid-1", DisplayName: "Hans", Email: "hans@example.com"}).Error)
	s.Require().NoError(s.DB.Create(&models.User{UID: "uid-2", Email: "grete@example.com"}).Error)

	ctx := context.Background()
	s.Equal("Hans", GetUserDisplayName(ctx, "uid-1"))
	s.Equal("grete@example.com", GetUserDisplayName(ctx, "uid-2"))
	s.Equal("uid-unknown", GetUserDisplayName(ctx, "uid-unknown"))
	s.Equal("Unbekannt", GetUserDisplayName(ctx, ""))
}

func TestUsersTestSuite(t *testing.T) {
	suite.Run(t, new(UsersTestSuite))
}
