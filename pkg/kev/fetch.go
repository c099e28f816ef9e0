package kev

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	version2 "github.com/hashicorp/go-version"
	"github.com/tidwall/gjson"
	"github.com/vulntriage/vulntriage/config"
)

const (
	// DefaultFeedURL is the public CISA KEV catalog, no authentication needed
	DefaultFeedURL = "https://www.cisa.gov/sites/default/files/feeds/known_exploited_vulnerabilities.json"

	feedTimeout = 30 * time.Second

	// the catalog is refreshed at most once per hour
	cacheTTL = time.Hour
)

// ErrFeedUnavailable reports a failed catalog refresh. The error is
// non-fatal to the pipeline, lookups degrade to the last cached snapshot.
var ErrFeedUnavailable = errors.New("kev feed unavailable")

// Refresh loads the KEV catalog into the index, downloading the feed only
// when the cached copy is expired.
func Refresh(ctx context.Context, ix *Index) error {
	store, err := config.GetConfDir()
	if err != nil {
		log.Printf("failed to get home dir, error: %v", err)
		return err
	}

	if ctx.Value("reset") != nil && ctx.Value("reset").(bool) {
		dateFile := filepath.Join(store, "date.txt")
		dbFile := filepath.Join(store, "kev.db")

		_ = os.Remove(dateFile)
		_ = os.Remove(dbFile)
	}

	cli := Client{
		Cli: &http.Client{
			Timeout: feedTimeout,
		},
		Store: store,
	}

	return cli.Refresh(ctx, ix)
}

// LoadCached publishes the cached snapshot without touching the network,
// for runs that skip the catalog refresh.
func LoadCached(ix *Index) error {
	store, err := config.GetConfDir()
	if err != nil {
		return err
	}

	cli := Client{
		Store: store,
	}

	return cli.LoadCached(ix)
}

// Refresh downloads the feed into the index. On download failure the cached
// snapshot keeps serving lookups and is marked stale.
func (cli *Client) Refresh(ctx context.Context, ix *Index) error {
	err := cli.Init()
	if err != nil {
		log.Printf("failed to init kev database")
		return err
	}

	defer cli.DB.Close()

	if !checkExpired(cli.Store) {
		snap, err := cli.loadSnapshot()
		if err == nil && snap.Len() > 0 {
			ix.Publish(snap)
			log.Printf("KEV catalog is already up to date, %d entries", snap.Len())
			return nil
		}
	}

	snap, err := cli.fetchFeed(ctx)
	if err != nil {
		cached, lerr := cli.loadSnapshot()
		if lerr == nil && cached.Len() > 0 {
			cached.Stale = true
			ix.Publish(cached)
			log.Printf("serving stale KEV snapshot of %s", cached.FetchedAt.Format("2006-01-02 15:04"))
		}

		return fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
	}

	// Reloading an unchanged feed keeps the stored rows
	if stored := cli.storedVersion(); stored != "" && snap.CatalogVersion != "" {
		sv, err1 := version2.NewVersion(stored)
		nv, err2 := version2.NewVersion(snap.CatalogVersion)

		if err1 == nil && err2 == nil && !nv.GreaterThan(sv) {
			ix.Publish(snap)
			_ = writeLog(cli.Store)
			return nil
		}
	}

	if err := cli.saveSnapshot(snap); err != nil {
		log.Printf("failed to cache kev snapshot, error: %v", err)
	}

	if err := writeLog(cli.Store); err != nil {
		log.Printf("failed to write date log, error: %v", err)
	}

	ix.Publish(snap)
	log.Printf(config.Green("KEV catalog updated, %d entries"), snap.Len())

	return nil
}

// LoadCached publishes whatever snapshot the local database holds. An
// expired cache is still served, marked stale.
func (cli *Client) LoadCached(ix *Index) error {
	err := cli.Init()
	if err != nil {
		return err
	}

	defer cli.DB.Close()

	snap, err := cli.loadSnapshot()
	if err != nil || snap.Len() == 0 {
		return fmt.Errorf("%w: no cached snapshot", ErrFeedUnavailable)
	}

	snap.Stale = checkExpired(cli.Store)
	ix.Publish(snap)
	log.Printf("using cached KEV snapshot of %s, %d entries",
		snap.FetchedAt.Format("2006-01-02 15:04"), snap.Len())

	return nil
}

func (cli *Client) fetchFeed(ctx context.Context) (*Snapshot, error) {
	url := cli.FeedURL
	if url == "" {
		url = DefaultFeedURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	res, err := cli.Cli.Do(req)
	if err != nil {
		return nil, err
	}

	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", res.StatusCode)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}

	return parseCatalog(body)
}

// parseCatalog builds a snapshot from the feed body. Unknown fields are
// ignored, a missing vulnerabilities list fails the refresh.
func parseCatalog(body []byte) (*Snapshot, error) {
	vulns := gjson.GetBytes(body, "vulnerabilities")
	if !vulns.Exists() || !vulns.IsArray() {
		return nil, errors.New("no vulnerabilities field in feed")
	}

	snap := &Snapshot{
		CatalogVersion: gjson.GetBytes(body, "catalogVersion").String(),
		DateReleased:   gjson.GetBytes(body, "dateReleased").String(),
		FetchedAt:      time.Now(),
		entries:        map[string]*Entry{},
	}

	var parseErr error
	vulns.ForEach(func(_, item gjson.Result) bool {
		cveID := strings.ToUpper(item.Get("cveID").String())
		if cveID == "" {
			parseErr = errors.New("entry without cveID in feed")
			return false
		}

		snap.entries[cveID] = &Entry{
			CVEID:           cveID,
			VendorProject:   item.Get("vendorProject").String(),
			Product:         item.Get("product").String(),
			VulnName:        item.Get("vulnerabilityName").String(),
			DateAdded:       item.Get("dateAdded").String(),
			DueDate:         item.Get("dueDate").String(),
			RequiredAction:  item.Get("requiredAction").String(),
			KnownRansomware: strings.EqualFold(item.Get("knownRansomwareCampaignUse").String(), "known"),
		}

		return true
	})

	if parseErr != nil {
		return nil, parseErr
	}

	if len(snap.entries) == 0 {
		return nil, errors.New("feed contains no entries")
	}

	return snap, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	if err != nil {
		if os.IsExist(err) {
			return true
		}

		return false
	}
	return true
}

func mkFolder(path string) error {
	if !exists(path) {
		err := os.MkdirAll(path, os.FileMode(0755))
		if err != nil {
			return err
		}
	}
	return nil
}

func checkExpired(path string) bool {

	filename := filepath.Join(path, "date.txt")

	if !exists(filename) {
		return true
	}

	value, err := os.ReadFile(filename)
	if err != nil {
		return true
	}

	logDate, err := time.Parse(time.RFC3339, strings.TrimSpace(string(value)))

	// Check whether a time format
	if err != nil {
		log.Printf("Date format error, expired")
		return true
	}

	return time.Now().After(logDate.Add(cacheTTL))
}

func writeLog(path string) error {

	filename := filepath.Join(path, "date.txt")

	return os.WriteFile(filename, []byte(time.Now().Format(time.RFC3339)), 0644)
}
