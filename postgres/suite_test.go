package postgres_test

import (
	"errors"
	"io/fs"
	"os"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/suite"
	"github.com/xy-planning-network/retention"
	"github.com/xy-planning-network/retention/postgres"
	"github.com/xy-planning-network/retention/ranger"
)

type DBTestSuite struct {
	suite.Suite

	db *postgres.DB
}

func TestRunSuite(t *testing.T) {
	err := godotenv.Load("../.env")
	var pe *fs.PathError
	if err != nil && !errors.As(err, &pe) {
		t.Fatal(err)
	}

	if os.Getenv("DATABASE_TEST_NAME") == "" {
		t.Skip("no test database configured")
	}

	suite.Run(t, new(DBTestSuite))
}

func (suite *DBTestSuite) SetupSuite() {
	cfg := ranger.NewPostgresConfig(retention.Testing)

	var err error
	suite.db, err = postgres.Connect(cfg, postgres.Migrations, retention.Testing)
	suite.Require().Nil(err)
}

func (suite *DBTestSuite) TearDownTest() {
	suite.Require().Nil(postgres.WipeDB(suite.db.DB()))
}
