// Package connectors holds clients for the services annotations are pulled
// from. Each subpackage implements driven.SearchClient for one service
// family; catchpy speaks both versions of the Catch search API.
package connectors
