package storage

import (
	"fieldops/storage/database"
	"fieldops/storage/mq"
	"fieldops/storage/redis"
)

// Init brings up all storage backends in dependency order.
func Init() error {
	if err := database.Init(); err != nil {
		return err
	}

	if err := redis.Init(); err != nil {
		return err
	}

	if err := mq.Init(); err != nil {
		return err
	}

	return nil
}
