package entity

import (
	"sort"
	"strings"

	"github.com/ignite/recon-dashboard/internal/recon"
)

// tierCapacity maps a WhatsApp messaging-limit tier to the number of phones
// a channel is planned to keep connected under it. Unlimited tiers are
// absent: their capacity is unbounded.
var tierCapacity = map[string]int{
	"TIER_50":   1,
	"TIER_250":  2,
	"TIER_1K":   5,
	"TIER_2K":   5,
	"TIER_10K":  10,
	"TIER_100K": 20,
}

// TierCapacity returns the capacity of tier and false when the tier is
// unlimited or unrecognized.
func TierCapacity(tier string) (int, bool) {
	t := strings.ToUpper(strings.TrimSpace(tier))
	t = strings.ReplaceAll(t, " ", "_")
	if t != "" && !strings.HasPrefix(t, "TIER_") {
		t = "TIER_" + t
	}
	n, ok := tierCapacity[t]
	return n, ok
}

// CampaignRollups rolls dispatch rows up per campaign; ProgressRatio is the
// share of sent rows. Campaigns named in known but absent from set (compared
// case and accent insensitively) are reported with zero totals.
func CampaignRollups(set recon.ReconciledSet, known ...string) []*recon.Rollup {
	m := recon.Aggregate(set, recon.ByField(FieldCampaign), recon.StatusOf(FieldSendStatus), recon.Sent)
	seen := make(map[string]bool, len(m))
	for g := range m {
		seen[recon.NormalizeText(g)] = true
	}
	for _, name := range known {
		norm := recon.NormalizeText(name)
		if norm == "" || seen[norm] {
			continue
		}
		seen[norm] = true
		m[name] = &recon.Rollup{Group: name, Counters: map[recon.Code]int{}}
	}
	return recon.SortRollups(m)
}

// ChannelRollup is the per-channel view of connected phones against the
// channel's messaging tier.
type ChannelRollup struct {
	*recon.Rollup
	Tier      string             `json:"tier"`
	Connected int                `json:"connected"`
	Capacity  *int               `json:"capacity"`
	Overflow  bool               `json:"overflow"`
	Quality   map[recon.Code]int `json:"quality"`
}

// ChannelRollups rolls channel phones up per channel name. The tier of a
// channel is taken from its most recent phone carrying one; set is recency
// ordered so that is the first seen.
func ChannelRollups(set recon.ReconciledSet) []*ChannelRollup {
	base := recon.Aggregate(set, recon.ByField(FieldChannelName), recon.StatusOf(FieldStatus), recon.Connected)

	out := make(map[string]*ChannelRollup, len(base))
	for g, r := range base {
		out[g] = &ChannelRollup{Rollup: r, Connected: r.Counters[recon.Connected], Quality: map[recon.Code]int{}}
	}
	for _, rec := range set {
		g := rec.Text(FieldChannelName)
		if g == "" {
			g = recon.UnknownGroup
		}
		cr := out[g]
		cr.Quality[rec.Code(FieldQuality)]++
		if cr.Tier == "" {
			cr.Tier = rec.Text(FieldMessagingLimit)
		}
	}

	list := make([]*ChannelRollup, 0, len(out))
	for _, sorted := range recon.SortRollups(base) {
		cr := out[sorted.Group]
		if n, ok := TierCapacity(cr.Tier); ok {
			cr.Capacity = &n
			cr.Overflow = cr.Connected > n
		}
		list = append(list, cr)
	}
	return list
}

// BMRollup is the per Business Manager view of its phones.
type BMRollup struct {
	*recon.Rollup
	Name         string     `json:"name"`
	Verification recon.Code `json:"verification"`
}

// BMRollups rolls channel phones up per BM id. Name and verification come
// from the most recent phone of the BM that knows them.
func BMRollups(set recon.ReconciledSet) []*BMRollup {
	base := recon.Aggregate(set, recon.ByField(FieldBMID), recon.StatusOf(FieldStatus), recon.Connected)

	out := make(map[string]*BMRollup, len(base))
	for g, r := range base {
		out[g] = &BMRollup{Rollup: r, Verification: recon.Unknown}
	}
	for _, rec := range set {
		g := rec.Text(FieldBMID)
		if g == "" {
			g = recon.UnknownGroup
		}
		br := out[g]
		if br.Name == "" {
			br.Name = rec.Text(FieldBMName)
		}
		if br.Verification == recon.Unknown {
			br.Verification = rec.Code(FieldBMVerification)
		}
	}

	list := make([]*BMRollup, 0, len(out))
	for _, sorted := range recon.SortRollups(base) {
		list = append(list, out[sorted.Group])
	}
	return list
}

// Campaigns lists the distinct campaign names of set, sorted.
func Campaigns(set recon.ReconciledSet) []string {
	seen := map[string]bool{}
	var out []string
	for _, rec := range set {
		c := rec.Text(FieldCampaign)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
