package db

import (
	"testing"

	"github.com/shinyyama/fleamarket-backend/internal/config"
)

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
		want string
	}{
		{
			"tcp host",
			config.Config{DBDriver: "mysql", DBUser: "u", DBPassword: "p", DBHost: "db", DBPort: "3306", DBName: "m"},
			"u:p@tcp(db:3306)/m?charset=utf8mb4&parseTime=True&loc=Local",
		},
		{
			"explicit tcp",
			config.Config{DBDriver: "mysql", DBUser: "u", DBPassword: "p", DBHost: "tcp(10.0.0.1:3307)", DBName: "m"},
			"u:p@tcp(10.0.0.1:3307)/m?charset=utf8mb4&parseTime=True&loc=Local",
		},
		{
			"socket path",
			config.Config{DBDriver: "mysql", DBUser: "u", DBPassword: "p", DBHost: "/tmp/mysql.sock", DBName: "m"},
			"u:p@unix(/tmp/mysql.sock)/m?charset=utf8mb4&parseTime=True&loc=Local",
		},
		{
			"cloud sql",
			config.Config{DBDriver: "mysql", DBUser: "u", DBPassword: "p", InstanceConnectionName: "proj:asia:db", DBName: "m"},
			"u:p@unix(/cloudsql/proj:asia:db)/m?charset=utf8mb4&parseTime=True&loc=Local",
		},
		{
			"postgres url wins",
			config.Config{DBDriver: "postgres", DatabaseURL: "postgres://u:p@db/m", DBHost: "ignored"},
			"postgres://u:p@db/m",
		},
		{
			"postgres fields",
			config.Config{DBDriver: "postgres", DBUser: "u", DBPassword: "p", DBHost: "db", DBPort: "3306", DBName: "m"},
			"host=db user=u password=p dbname=m port=5432 sslmode=disable TimeZone=UTC",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			if got := BuildDSN(&cfg); got != tt.want {
				t.Fatalf("got=%q want=%q", got, tt.want)
			}
		})
	}
}
