package client

import "strings"

// ActiveEndpoint yields the endpoint uploads are sent to.
type ActiveEndpoint interface {
	Active() (string, bool)
}

// EndpointLister yields every registered endpoint in registration order.
type EndpointLister interface {
	All() []string
}

// endpointURL joins an endpoint base and a relative path. A trailing slash
// on the base is tolerated.
func endpointURL(base, rel string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(rel, "/")
}
