package stores

import (
	"goods-manager/core"
	"goods-manager/stores/aws"
	"goods-manager/stores/bolt"
	"goods-manager/stores/filesystem"
	"goods-manager/stores/memory"
	"goods-manager/stores/sqlite"
	"os"

	"github.com/sirupsen/logrus"
)

// GetStore picks the key/value backend from STORAGE_TYPE. Backends that hold
// a file handle also implement io.Closer.
func GetStore() core.KVStore {
	storageType := os.Getenv("STORAGE_TYPE")
	var store core.KVStore

	storageField := logrus.Fields{
		"storageType": storageType,
	}

	switch storageType {
	case "filesystem":
		basePath := os.Getenv("LOCAL_STORAGE_PATH")
		if basePath == "" {
			basePath = "./data" // Default path
		}
		storageField["basePath"] = basePath
		store = filesystem.NewStore(basePath)
	case "sqlite":
		dataSourceName := os.Getenv("DATA_SOURCE_NAME")
		if dataSourceName == "" {
			dataSourceName = "goods-manager.db" // Default filename
		}
		storageField["dataSourceName"] = dataSourceName
		store = sqlite.NewStore(dataSourceName)
	case "bolt":
		boltPath := os.Getenv("BOLT_PATH")
		if boltPath == "" {
			boltPath = "./data/goods-manager.bolt"
		}
		storageField["boltPath"] = boltPath
		store = bolt.NewStore(boltPath)
	case "s3":
		bucketName := os.Getenv("S3_BUCKET_NAME")
		if bucketName == "" {
			logrus.Fatal("S3_BUCKET_NAME environment variable must be set for s3 storage type")
		}
		storageField["bucketName"] = bucketName
		store = aws.NewStore(bucketName)
	default:
		store = memory.NewStore()
		storageField["storageType"] = "in-memory"
	}
	logrus.WithFields(storageField).Info("Use storage")
	return store
}
