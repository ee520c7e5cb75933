// Package host adapts the host application's environment to the collaborator
// interfaces of the catalog package: the set of installed extensions and the
// source of the popularity API access token.
package host
