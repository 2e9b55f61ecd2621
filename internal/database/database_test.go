package database

import (
	"testing"

	"checklist/config"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/stretchr/testify/assert"
)

func TestCacheConstants(t *testing.T) {
	assert.Equal(t, 0, GENERAL_CACHE_INDEX)
	assert.Equal(t, 1, IDENTITY_CACHE_INDEX)
	assert.Equal(t, 2, EVENTS_CACHE_INDEX)
}

func TestCacheClientForIndex(t *testing.T) {
	_, name, ok := cacheClientForIndex(IDENTITY_CACHE_INDEX, Cache{})
	assert.True(t, ok)
	assert.Equal(t, "Identity", name)

	_, _, ok = cacheClientForIndex(9, Cache{})
	assert.False(t, ok)
}

func TestDB_StructCreation(t *testing.T) {
	log := logger.New("test")

	db := &DB{
		log: log,
	}

	assert.NotNil(t, db)
	assert.Equal(t, log, db.log)
	assert.Nil(t, db.SQL)
	assert.NoError(t, db.Close())
}

func TestDSN(t *testing.T) {
	dsn := DSN(config.Config{
		DatabaseHost:     "db",
		DatabasePort:     5432,
		DatabaseUser:     "checklist",
		DatabasePassword: "secret",
		DatabaseName:     "checklist",
	})

	assert.Equal(
		t,
		"host=db port=5432 user=checklist password=secret dbname=checklist sslmode=disable TimeZone=UTC",
		dsn,
	)
}

func TestCacheBuilder_KeyComposition(t *testing.T) {
	assert.Equal(t, "identity:E-1", NewCacheBuilder(nil, "E-1").WithHash("identity").Key())
	assert.Equal(t, "submission:42", NewCacheBuilder(nil, 42).WithHash("submission").Key())
	assert.Equal(t, "plain", NewCacheBuilder(nil, "plain").WithHash("").Key())
}

func TestCacheBuilder_ValidationErrors(t *testing.T) {
	err := NewCacheBuilder(nil, "").WithValue("x").Set()
	assert.EqualError(t, err, "key is required")

	err = NewCacheBuilder(nil, "k").Set()
	assert.EqualError(t, err, "value is required")

	found, err := NewCacheBuilder(nil, "k").WithStruct(make(chan int)).Get(&struct{}{})
	assert.False(t, found)
	assert.ErrorContains(t, err, "failed to marshal value to json")
}

func TestModelsToMigrate(t *testing.T) {
	assert.Len(t, ModelsToMigrate, 8)
}
