// Package watchlist imports IMDb CSV exports into the watch history.
package watchlist
