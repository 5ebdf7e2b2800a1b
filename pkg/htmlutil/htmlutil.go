// Copyright (C) 2025-2026  Rungsiman Nararatwong
//
// SPDX-License-Identifier: BSD-3-Clause

// Package htmlutil has helpers for walking golang.org/x/net/html document
// trees.
package htmlutil

import (
	"golang.org/x/net/html"
)

// VisitHTML walks the tree rooted at node depth-first, calling before on the
// way down and after on the way back up.  Either callback may be nil.  An
// error from a callback stops the walk and is returned as-is.
func VisitHTML(node *html.Node, before, after func(*html.Node) error) error {
	if before != nil {
		if err := before(node); err != nil {
			return err
		}
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if err := VisitHTML(child, before, after); err != nil {
			return err
		}
	}
	if after != nil {
		if err := after(node); err != nil {
			return err
		}
	}
	return nil
}

// GetAttr looks up one of node's attributes by namespace and name.  Most
// callers want namespace "" (no namespace, not "any namespace").
func GetAttr(node *html.Node, namespace, name string) (val string, ok bool) {
	if node == nil {
		return "", false
	}
	for _, attr := range node.Attr {
		if attr.Namespace == namespace && attr.Key == name {
			return attr.Val, true
		}
	}
	return "", false
}
