// Package gridfs guarda las fotos en un bucket GridFS de MongoDB (colección "imagenes").
package gridfs

import (
	"context"
	"io"
	"time"

	"animal-shelter/internal/ports/blob"

	"github.com/juju/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const DefaultBucket = "imagenes"

type Store struct {
	client *mongo.Client
	bucket *gridfs.Bucket
}

// Open conecta, hace ping y abre el bucket.
func Open(ctx context.Context, uri, database, bucketName string) (*Store, error) {
	if bucketName == "" {
		bucketName = DefaultBucket
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Annotate(err, "connect mongo")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Annotate(err, "ping mongo")
	}

	bucket, err := gridfs.NewBucket(client.Database(database), options.GridFSBucket().SetName(bucketName))
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Annotate(err, "open gridfs bucket")
	}
	return &Store{client: client, bucket: bucket}, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Put sube el archivo con la clave como filename; el content type va en metadata.
func (s *Store) Put(ctx context.Context, key, contentType string, r io.Reader) error {
	opts := options.GridFSUpload().SetMetadata(bson.D{{Key: "contentType", Value: contentType}})
	_, err := s.bucket.UploadFromStream(key, r, opts)
	return errors.Annotatef(err, "upload %q to gridfs", key)
}

// Open devuelve la última revisión con ese filename.
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, string, error) {
	stream, err := s.bucket.OpenDownloadStreamByName(key)
	if errors.Is(err, gridfs.ErrFileNotFound) {
		return nil, "", blob.ErrNotFound
	}
	if err != nil {
		return nil, "", errors.Annotatef(err, "open %q from gridfs", key)
	}

	ct := "application/octet-stream"
	if f := stream.GetFile(); f != nil && f.Metadata != nil {
		if v, ok := f.Metadata.Lookup("contentType").StringValueOK(); ok && v != "" {
			ct = v
		}
	}
	return stream, ct, nil
}

// Delete borra todas las revisiones con ese filename.
func (s *Store) Delete(ctx context.Context, key string) error {
	cur, err := s.bucket.Find(bson.D{{Key: "filename", Value: key}})
	if err != nil {
		return errors.Annotatef(err, "find %q in gridfs", key)
	}
	var files []bson.M
	if err := cur.All(ctx, &files); err != nil {
		return errors.Annotatef(err, "read %q revisions", key)
	}
	for _, f := range files {
		if err := s.bucket.Delete(f["_id"]); err != nil && !errors.Is(err, gridfs.ErrFileNotFound) {
			return errors.Annotatef(err, "delete %q from gridfs", key)
		}
	}
	return nil
}
