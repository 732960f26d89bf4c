package s3

import (
	"context"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	awss3 "github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"starlake/internal/datasource"
)

// fakeS3 serves canned pages and objects without network access.
type fakeS3 struct {
	s3iface.S3API

	pages   []*awss3.ListObjectsV2Output
	objects map[string]string
	listErr error
}

func (f *fakeS3) ListObjectsV2PagesWithContext(
	ctx aws.Context,
	in *awss3.ListObjectsV2Input,
	fn func(*awss3.ListObjectsV2Output, bool) bool,
	opts ...request.Option,
) error {
	if f.listErr != nil {
		return f.listErr
	}
	for i, page := range f.pages {
		if !fn(page, i == len(f.pages)-1) {
			break
		}
	}
	return nil
}

func (f *fakeS3) GetObjectWithContext(
	ctx aws.Context,
	in *awss3.GetObjectInput,
	opts ...request.Option,
) (*awss3.GetObjectOutput, error) {
	body, ok := f.objects[aws.StringValue(in.Key)]
	if !ok {
		return nil, awserr.New(awss3.ErrCodeNoSuchKey, "no such key", nil)
	}
	return &awss3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func obj(key string, size int64) *awss3.Object {
	return &awss3.Object{Key: aws.String(key), Size: aws.Int64(size)}
}

func TestListMergesPagesSortedSkippingEmpty(t *testing.T) {
	t.Parallel()

	fake := &fakeS3{
		pages: []*awss3.ListObjectsV2Output{
			{Contents: []*awss3.Object{obj("log_data/2018/11/b.json", 10), obj("log_data/2018/11/", 0)}},
			{Contents: []*awss3.Object{obj("log_data/2018/11/a.json", 20)}},
		},
	}
	got, err := NewPrefix(fake, "bucket", "log_data/").List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	want := []string{"log_data/2018/11/a.json", "log_data/2018/11/b.json"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("List = %v, want %v", got, want)
	}
}

func TestListNoSuchBucket(t *testing.T) {
	t.Parallel()

	fake := &fakeS3{listErr: awserr.New(awss3.ErrCodeNoSuchBucket, "no bucket", nil)}
	_, err := NewPrefix(fake, "missing", "p/").List(context.Background())
	if !errors.Is(err, datasource.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestOpenReturnsBody(t *testing.T) {
	t.Parallel()

	fake := &fakeS3{objects: map[string]string{"song_data/A/x.json": `{"song_id":"S1"}`}}
	p := NewPrefix(fake, "bucket", "song_data/")

	rc, err := p.Open(context.Background(), "song_data/A/x.json")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if string(body) != `{"song_id":"S1"}` {
		t.Fatalf("body = %q", body)
	}

	if _, err := p.Open(context.Background(), "song_data/missing.json"); !errors.Is(err, datasource.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
