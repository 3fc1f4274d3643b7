package export

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/livetree/pkg/dom"
	"github.com/vango-dev/livetree/pkg/vdom"
)

type put struct {
	bucket, key, contentType string
	body                     string
	length                   int64
	meta                     map[string]string
}

type fakeS3 struct {
	puts  []put
	pages [][]types.Object
	err   error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, _ := io.ReadAll(in.Body)
	f.puts = append(f.puts, put{
		bucket:      aws.ToString(in.Bucket),
		key:         aws.ToString(in.Key),
		contentType: aws.ToString(in.ContentType),
		body:        string(body),
		length:      aws.ToInt64(in.ContentLength),
		meta:        in.Metadata,
	})
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	if f.err != nil {
		return nil, f.err
	}
	page := 0
	if in.ContinuationToken != nil {
		page = int(aws.ToString(in.ContinuationToken)[0] - '0')
	}
	out := &s3.ListObjectsV2Output{Contents: f.pages[page]}
	if page+1 < len(f.pages) {
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(string(rune('0' + page + 1)))
	}
	return out, nil
}

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func fixedNow() time.Time { return time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC) }

func TestExport(t *testing.T) {
	api := &fakeS3{}
	e := New(api, "site", "pages/", WithLogger(quiet))
	e.now = fixedNow

	doc := dom.New()
	live, err := vdom.NewReconciler(doc).Materialize(vdom.Div(vdom.ID("x"), "a < b"))
	if err != nil {
		t.Fatal(err)
	}

	key, err := e.Export(context.Background(), "/counter.html", live.(*dom.Node))
	if err != nil {
		t.Fatal(err)
	}
	if key != "pages/counter.html" {
		t.Errorf("key = %q", key)
	}

	body := `<div id="x">a &lt; b</div>`
	want := []put{{
		bucket:      "site",
		key:         "pages/counter.html",
		contentType: "text/html; charset=utf-8",
		body:        body,
		length:      int64(len(body)),
		meta:        map[string]string{"exported-at": "2026-10-17T12:00:00Z"},
	}}
	if diff := cmp.Diff(want, api.puts, cmp.AllowUnexported(put{})); diff != "" {
		t.Errorf("PutObject calls mismatch (-want +got):\n%s", diff)
	}
}

func TestPutErrors(t *testing.T) {
	boom := errors.New("boom")
	e := New(&fakeS3{err: boom}, "b", "", WithLogger(quiet))

	if _, err := e.Put(context.Background(), "/", []byte("x")); !errors.Is(err, ErrEmptyName) {
		t.Errorf("empty name err = %v", err)
	}
	if _, err := e.Put(context.Background(), "a.html", []byte("x")); !errors.Is(err, boom) {
		t.Errorf("put err = %v, want wrapped boom", err)
	}
}

func TestList(t *testing.T) {
	ts := fixedNow()
	api := &fakeS3{pages: [][]types.Object{
		{{Key: aws.String("p/a.html"), Size: aws.Int64(10), LastModified: &ts}},
		{{Key: aws.String("p/b.html"), Size: aws.Int64(20)}},
	}}
	e := New(api, "b", "p/", WithLogger(quiet))

	got, err := e.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := []Object{
		{Key: "p/a.html", Size: 10, LastModified: ts},
		{Key: "p/b.html", Size: 20},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("List mismatch (-want +got):\n%s", diff)
	}
}

func TestParseURL(t *testing.T) {
	tests := []struct {
		in             string
		bucket, prefix string
		ok             bool
	}{
		{"s3://site", "site", "", true},
		{"s3://site/", "site", "", true},
		{"s3://site/pages", "site", "pages/", true},
		{"s3://site/a/b/", "site", "a/b/", true},
		{"https://site/pages", "", "", false},
		{"s3:///pages", "", "", false},
		{"s3://site/p?x=1", "", "", false},
		{"site/pages", "", "", false},
	}
	for _, tt := range tests {
		bucket, prefix, err := ParseURL(tt.in)
		if tt.ok != (err == nil) {
			t.Errorf("ParseURL(%q) err = %v", tt.in, err)
			continue
		}
		if !tt.ok {
			if !errors.Is(err, ErrInvalidURL) {
				t.Errorf("ParseURL(%q) err = %v, want ErrInvalidURL", tt.in, err)
			}
			continue
		}
		if bucket != tt.bucket || prefix != tt.prefix {
			t.Errorf("ParseURL(%q) = %q, %q, want %q, %q", tt.in, bucket, prefix, tt.bucket, tt.prefix)
		}
	}
}

func TestNewClient(t *testing.T) {
	t.Setenv("AWS_REGION", "")
	c := NewClient(ClientConfig{Endpoint: "http://localhost:9000", PathStyle: true})
	o := c.Options()
	if o.Region != DefaultRegion {
		t.Errorf("Region = %q, want %q", o.Region, DefaultRegion)
	}
	if !o.UsePathStyle || aws.ToString(o.BaseEndpoint) != "http://localhost:9000" {
		t.Errorf("options = %+v", o)
	}

	t.Setenv("AWS_ACCESS_KEY_ID", "")
	if _, err := o.Credentials.Retrieve(context.Background()); !errors.Is(err, ErrNoCredentials) {
		t.Errorf("Retrieve() err = %v, want ErrNoCredentials", err)
	}
}

func TestEnvCredentials(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "id")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	t.Setenv("AWS_SESSION_TOKEN", "tok")

	creds, err := envCredentials(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if creds.AccessKeyID != "id" || creds.SecretAccessKey != "secret" || creds.SessionToken != "tok" {
		t.Errorf("credentials = %+v", creds)
	}
}
