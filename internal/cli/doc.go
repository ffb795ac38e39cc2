// Package cli implements the predictors command tree.
package cli
