// Package testutil holds test doubles shared by the applier and CLI tests.
package testutil
