package database

import (
	"fmt"
	"net/url"
	"strings"
)

// ConstructDatabaseURL joins a server URL and a database name.
// sslmode=disable is added when the URL does not set sslmode.
func ConstructDatabaseURL(baseURL, databaseName string) string {
	if databaseName == "" {
		return baseURL
	}

	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" {
		// Not a URL we understand; append the name and let pgx report the problem
		return fmt.Sprintf("%s/%s", strings.TrimRight(baseURL, "/"), databaseName)
	}

	u.Path = "/" + databaseName
	query := u.Query()
	if query.Get("sslmode") == "" {
		query.Set("sslmode", "disable")
	}
	u.RawQuery = query.Encode()
	return u.String()
}
