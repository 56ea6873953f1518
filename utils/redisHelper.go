package utils

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"time"

	"github.com/mmdatafocus/invoice_backend/config"
)

func GetCacheLifespan() time.Duration {
	lifespan, err := strconv.Atoi(os.Getenv("CACHE_LIFESPAN"))
	if err != nil || lifespan <= 0 {
		lifespan = 1
	}
	return time.Duration(lifespan) * time.Hour
}

func GetTypeName[T any]() string {
	var v T
	return reflect.TypeOf(v).Name()
}

func cacheKey[T any](id int) string {
	return GetTypeName[T]() + ":" + fmt.Sprint(id)
}

// StoreRedis caches obj under "<Type>:<id>".
func StoreRedis[T any](ctx context.Context, obj *T, id int) error {
	return config.SetRedisObject(ctx, cacheKey[T](id), obj, GetCacheLifespan())
}

// RetrieveRedis returns nil with no error on a cache miss or when redis is not connected.
func RetrieveRedis[T any](ctx context.Context, id int) (*T, error) {
	var obj T
	exists, err := config.GetRedisObject(ctx, cacheKey[T](id), &obj)
	if err != nil || !exists {
		return nil, err
	}
	return &obj, nil
}

func RemoveRedisItem[T any](ctx context.Context, id int) error {
	return config.RemoveRedisKey(ctx, cacheKey[T](id))
}
