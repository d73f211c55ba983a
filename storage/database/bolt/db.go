package boltdb

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"go.etcd.io/bbolt"
)

var (
	usersBucket        = []byte("users")
	usersByEmailBucket = []byte("users_by_email")
	questionsBucket    = []byte("questions")
	answersBucket      = []byte("answers")

	buckets = [][]byte{usersBucket, usersByEmailBucket, questionsBucket, answersBucket}
)

// Open opens (or creates) the bolt file at path and its buckets.
func Open(path string) (*bbolt.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrap(err, "creating bolt directory")
		}
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "opening bolt db")
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, bucket := range buckets {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "creating buckets")
	}
	return db, nil
}

func put(b *bbolt.Bucket, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return b.Put([]byte(key), data)
}

// get decodes the value at key into out, or returns notFound.
func get(b *bbolt.Bucket, key string, out interface{}, notFound error) error {
	data := b.Get([]byte(key))
	if data == nil {
		return notFound
	}
	return json.Unmarshal(data, out)
}
