package s3

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/kirillkom/haiku-studio/internal/core/domain"
)

type objectAPIFake struct {
	objects map[string][]byte
}

func (f *objectAPIFake) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	raw, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = raw
	return &s3.PutObjectOutput{}, nil
}

func (f *objectAPIFake) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	raw, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(raw))}, nil
}

func (f *objectAPIFake) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestStorageRoundTripsThroughPrefix(t *testing.T) {
	fake := &objectAPIFake{objects: map[string][]byte{}}
	store := &Storage{api: fake, bucket: "haiku", prefix: "images"}
	ctx := context.Background()

	if err := store.Save(ctx, "a.png", bytes.NewReader([]byte("png"))); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, ok := fake.objects["haiku/images/a.png"]; !ok {
		t.Fatalf("expected prefixed key, got %v", fake.objects)
	}
	rc, err := store.Open(ctx, "a.png")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	raw, _ := io.ReadAll(rc)
	rc.Close()
	if string(raw) != "png" {
		t.Fatalf("unexpected content %q", raw)
	}

	if err := store.Delete(ctx, "a.png"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Open(ctx, "a.png"); !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
