package database

import "wedding-booking/pkg/utils"

func testDatabaseConfig() utils.DatabaseConfig {
	return utils.DatabaseConfig{
		Host:     "localhost",
		Port:     "5432",
		Name:     "weddings",
		User:     "postgres",
		Password: "postgres",
		MaxConns: 4,
	}
}
