package repository

import (
	"context"
	"net/url"
	"strconv"

	"github.com/noah-isme/wisdom-gateway/pkg/apiclient"
)

// remote bundles the public client with a helper resolving the
// authenticated variant for the caller's session.
type remote struct {
	client *apiclient.Client
}

func (r remote) public() *apiclient.Client {
	return r.client
}

func (r remote) secure(ctx context.Context) (*apiclient.Client, error) {
	return r.client.Secure(ctx)
}

func boolQuery(values url.Values, key string, v *bool) {
	if v == nil {
		return
	}
	values.Set(key, strconv.FormatBool(*v))
}

func escape(id string) string {
	return url.PathEscape(id)
}
