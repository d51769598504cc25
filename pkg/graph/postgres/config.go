package postgres

import (
	"fmt"
	"net"
	"strconv"
)

type Config struct {
	Host        string `env:"DB_HOST,default=localhost"`
	User        string `env:"DB_USER,default=postgres"`
	Password    string `env:"DB_PASSWORD,default=postgres"`
	Name        string `env:"DB_NAME,default=newsgraph"`
	Port        int    `env:"DB_PORT,default=5432"`
	AutoMigrate bool   `env:"DB_AUTO_MIGRATE,default=false"`
}

func (c Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s/%s?sslmode=disable",
		c.User,
		c.Password,
		net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		c.Name,
	)
}
