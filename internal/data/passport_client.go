package data

import (
	"context"
	"time"

	"brightcopy/plan-service/internal/biz"
	"brightcopy/plan-service/internal/conf"
	pkgerrors "brightcopy/plan-service/internal/errors"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/transport/http"
)

type passportClient struct {
	client *http.Client
}

type renameRequest struct {
	Name string `json:"name"`
}

type activeUsersReply struct {
	Count int64 `json:"count"`
}

// NewPassportClient creates the passport-service client. When no address is
// configured the client degrades to an empty implementation so the service
// still starts in environments without a passport deployment.
func NewPassportClient(c *conf.Bootstrap) (biz.PassportClient, error) {
	addr := ""
	timeout := 5 * time.Second
	if c != nil && c.Client != nil && c.Client.PassportService != nil {
		addr = c.Client.PassportService.Addr
		if c.Client.PassportService.Timeout != "" {
			if d, err := time.ParseDuration(c.Client.PassportService.Timeout); err == nil {
				timeout = d
			}
		}
	}
	if addr == "" {
		return &emptyPassportClient{}, nil
	}

	client, err := http.NewClient(context.Background(),
		http.WithEndpoint(addr),
		http.WithTimeout(timeout),
	)
	if err != nil {
		return &emptyPassportClient{}, nil
	}
	return &passportClient{client: client}, nil
}

// Rename updates the user's display name in the passport service.
func (c *passportClient) Rename(ctx context.Context, uid, name string) error {
	req := &renameRequest{Name: name}
	err := c.client.Invoke(ctx, "PUT", "/v1/users/"+uid+"/name", req, nil)
	if kerrors.Code(err) == 404 {
		return pkgerrors.NotFound(uid)
	}
	return err
}

// CountActiveUsers counts users active since the given time.
func (c *passportClient) CountActiveUsers(ctx context.Context, since time.Time) (int64, error) {
	var reply activeUsersReply
	path := "/v1/users/active_count?since=" + since.UTC().Format(time.RFC3339)
	if err := c.client.Invoke(ctx, "GET", path, nil, &reply); err != nil {
		return 0, err
	}
	return reply.Count, nil
}

// emptyPassportClient is the no-op fallback when passport is unconfigured.
type emptyPassportClient struct{}

func (e *emptyPassportClient) Rename(ctx context.Context, uid, name string) error {
	return kerrors.ServiceUnavailable("PASSPORT_UNCONFIGURED", "passport service is not configured")
}

func (e *emptyPassportClient) CountActiveUsers(ctx context.Context, since time.Time) (int64, error) {
	return 0, nil
}
