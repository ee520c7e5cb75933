package catalog

// Reconcile assigns Stars and StarsSource to every entry.
//
// For an entry with a RepoKey the precedence is:
//  1. starCache holds a value > 0: that value, SourceLocal
//  2. precomputed holds the key: that value, SourceManager
//  3. otherwise: 0, SourceNone
//
// Entries without a RepoKey always get 0 and SourceNone. Entries are updated
// in place and the same slice is returned. Either map may be nil.
//
// A catalog refresh backfills precomputed values into the star cache, so an
// entry reported as SourceManager on the refresh is reported as SourceLocal
// on later cache reads. A backfilled zero stays SourceNone on those reads
// because only positive cached values count as local.
func Reconcile(entries []Entry, starCache StarCache, precomputed StarCache) []Entry {
	for i := range entries {
		stars, source := lookupStars(entries[i].RepoKey, starCache, precomputed)
		entries[i].Stars = stars
		entries[i].StarsSource = source
	}
	return entries
}

func lookupStars(key RepoKey, starCache StarCache, precomputed StarCache) (int, StarSource) {
	if key == "" {
		return 0, SourceNone
	}
	if v := starCache[key]; v > 0 {
		return v, SourceLocal
	}
	if v, ok := precomputed[key]; ok {
		return v, SourceManager
	}
	return 0, SourceNone
}

// markInstalled recomputes IsInstalled for every entry against the host's
// installed set. A nil set marks nothing installed.
func markInstalled(entries []Entry, installed InstalledSet) {
	for i := range entries {
		entries[i].IsInstalled = installed != nil && installed.Contains(entries[i].PluginName)
	}
}
