package pkgrouter

import (
	"context"
	"strconv"

	"github.com/julienschmidt/httprouter"
)

// GetParam reads a path parameter from the request context (as stored by httprouter).
func GetParam(ctx context.Context, key string) string {
	return httprouter.ParamsFromContext(ctx).ByName(key)
}

// GetParamInt64 reads a positive integer path parameter such as an account id.
// ok is false when the parameter is missing or not a positive integer.
func GetParamInt64(ctx context.Context, key string) (v int64, ok bool) {
	v, err := strconv.ParseInt(GetParam(ctx, key), 10, 64)
	if err != nil || v < 1 {
		return 0, false
	}
	return v, true
}
