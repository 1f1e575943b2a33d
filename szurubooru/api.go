package szurubooru

import (
	"context"
	"io"
	"iter"
	"net/url"

	"github.com/spf13/afero"
)

// Transport defines the raw request operations of a client
type Transport interface {
	// Call performs a JSON API request and decodes the response object
	Call(ctx context.Context, method string, parts []string, query url.Values, body any) (map[string]any, error)

	// Upload stores content in the temporary upload area
	Upload(ctx context.Context, content io.Reader, filename string) (FileToken, error)

	// UploadFile uploads a file read through fs
	UploadFile(ctx context.Context, fs afero.Fs, path string) (FileToken, error)
}

// API defines the interface for szurubooru operations
type API interface {
	Transport

	// TestConnection verifies the client can reach the server
	TestConnection(ctx context.Context) error

	CreatePost(ctx context.Context, content FileToken, safety Safety) (*Post, error)
	GetPost(ctx context.Context, id int) (*Post, error)
	IterPosts(ctx context.Context, query string, opts ...SearchOption) iter.Seq2[*Post, error]
	SearchPosts(ctx context.Context, query string, opts ...SearchOption) ([]*Post, error)
	DeletePost(ctx context.Context, id int) error
	MergePosts(ctx context.Context, source, target int, replaceContent bool) (*Post, error)
	GetAroundPost(ctx context.Context, id int) (prev, next *Post, err error)
	GetFeaturedPost(ctx context.Context) (*Post, error)
	SetFeaturedPost(ctx context.Context, id int) (*Post, error)
	SearchByImage(ctx context.Context, content FileToken, eager bool) ([]SearchResult, error)

	CreateTag(ctx context.Context, name string, aliases ...string) (*Tag, error)
	GetTag(ctx context.Context, name string) (*Tag, error)
	IterTags(ctx context.Context, query string, opts ...SearchOption) iter.Seq2[*Tag, error]
	SearchTags(ctx context.Context, query string, opts ...SearchOption) ([]*Tag, error)
	DeleteTag(ctx context.Context, name string) error
	MergeTags(ctx context.Context, source, target string, addAsAlias bool) (*Tag, error)
	ListTagSiblings(ctx context.Context, name string) ([]TagSibling, error)

	CreateTagCategory(ctx context.Context, name string) (*TagCategory, error)
	GetTagCategory(ctx context.Context, name string) (*TagCategory, error)
	ListTagCategories(ctx context.Context) ([]*TagCategory, error)
	GetDefaultTagCategory(ctx context.Context) (*TagCategory, error)
	SetDefaultTagCategory(ctx context.Context, name string) (*TagCategory, error)
	DeleteTagCategory(ctx context.Context, name string) error

	CreatePoolCategory(ctx context.Context, name string) (*PoolCategory, error)
	GetPoolCategory(ctx context.Context, name string) (*PoolCategory, error)
	ListPoolCategories(ctx context.Context) ([]*PoolCategory, error)
	GetDefaultPoolCategory(ctx context.Context) (*PoolCategory, error)
	SetDefaultPoolCategory(ctx context.Context, name string) (*PoolCategory, error)
	DeletePoolCategory(ctx context.Context, name string) error

	CreatePool(ctx context.Context, name string) (*Pool, error)
	GetPool(ctx context.Context, id int) (*Pool, error)
	IterPools(ctx context.Context, query string, opts ...SearchOption) iter.Seq2[*Pool, error]
	SearchPools(ctx context.Context, query string, opts ...SearchOption) ([]*Pool, error)
	DeletePool(ctx context.Context, id int) error
	MergePools(ctx context.Context, source, target int, addAsAlias bool) (*Pool, error)
}

var _ API = (*Client)(nil)
