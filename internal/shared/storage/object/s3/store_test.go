package s3

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type fakeS3 struct {
	put     *s3.PutObjectInput
	body    string
	objects map[string]string
	deleted []string
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.put = params
	f.body = string(data)
	if f.objects == nil {
		f.objects = map[string]string{}
	}
	f.objects[aws.ToString(params.Key)] = f.body
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(f.objects[aws.ToString(params.Key)]))}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(params.Key))
	delete(f.objects, aws.ToString(params.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestApplyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		prefix string
		key    string
		want   string
	}{
		{"", "documents/doc-1/source_a.pdf", "documents/doc-1/source_a.pdf"},
		{"/annotations/", "/documents/doc-1/source_a.pdf", "annotations/documents/doc-1/source_a.pdf"},
		{"env/prod", "documents/doc-1/generated_b.txt", "env/prod/documents/doc-1/generated_b.txt"},
		{"root", "", "root"},
	}
	for _, tt := range tests {
		if got := applyPrefix(tt.prefix, tt.key); got != tt.want {
			t.Fatalf("applyPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
		}
	}
}

func TestPutTagsDocumentAndSniffs(t *testing.T) {
	fake := &fakeS3{}
	store := &Store{client: fake, bucket: "originals", prefix: "dev"}

	size, mime, err := store.Put(context.Background(), "documents/doc-9/generated_out.txt", "", strings.NewReader("生成的文本"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if size != int64(len("生成的文本")) || !strings.HasPrefix(mime, "text/plain") {
		t.Fatalf("unexpected size/mime %d %q", size, mime)
	}
	if aws.ToString(fake.put.Key) != "dev/documents/doc-9/generated_out.txt" {
		t.Fatalf("unexpected key %q", aws.ToString(fake.put.Key))
	}
	if fake.put.Metadata["document-id"] != "doc-9" || fake.put.Metadata["document-part"] != "generated" {
		t.Fatalf("unexpected metadata %v", fake.put.Metadata)
	}
	if fake.put.ServerSideEncryption != s3types.ServerSideEncryptionAes256 {
		t.Fatalf("expected AES256 without a KMS key")
	}

	rc, err := store.Open(context.Background(), "documents/doc-9/generated_out.txt")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "生成的文本" {
		t.Fatalf("unexpected body %q", data)
	}
}

func TestPutUsesKMSWhenConfigured(t *testing.T) {
	fake := &fakeS3{}
	store := &Store{client: fake, bucket: "originals", kmsKeyID: "alias/annotations"}
	if _, _, err := store.Put(context.Background(), "other/key.bin", "application/octet-stream", strings.NewReader("x")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if fake.put.ServerSideEncryption != s3types.ServerSideEncryptionAwsKms || aws.ToString(fake.put.SSEKMSKeyId) != "alias/annotations" {
		t.Fatalf("expected KMS encryption, got %+v", fake.put)
	}
	if fake.put.Metadata != nil {
		t.Fatalf("non-document keys carry no metadata, got %v", fake.put.Metadata)
	}
}

func TestDeleteAppliesPrefix(t *testing.T) {
	fake := &fakeS3{objects: map[string]string{"dev/documents/doc-9/source_a.txt": "x"}}
	store := &Store{client: fake, bucket: "originals", prefix: "dev"}

	if err := store.Delete(context.Background(), "documents/doc-9/source_a.txt"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(fake.deleted) != 1 || fake.deleted[0] != "dev/documents/doc-9/source_a.txt" {
		t.Fatalf("unexpected deletes %v", fake.deleted)
	}
	if _, ok := fake.objects["dev/documents/doc-9/source_a.txt"]; ok {
		t.Fatalf("expected object removed")
	}
}
