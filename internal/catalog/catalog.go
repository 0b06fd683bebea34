// Package catalog holds the priced service packages and add-on extras the bot
// sells. The data is immutable after construction and shared read-only across
// conversations.
package catalog

import (
	"fmt"
	"sort"
)

// Tier is a priced service package with a feature list. Prices are whole
// currency amounts (ETB), no minor units.
type Tier struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	Price    int      `yaml:"price"`
	Features []string `yaml:"features"`
}

// Addon is an optional priced extra attached to an order.
type Addon struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Price int    `yaml:"price"`
}

// Catalog resolves tier and add-on identifiers to their definitions.
type Catalog struct {
	tiers     map[string]Tier
	addons    map[string]Addon
	tierOrder []string
	addOrder  []string
}

// New builds a catalog from tier and add-on definitions, keeping their order
// for menu rendering. Duplicate or empty identifiers are rejected.
func New(tiers []Tier, addons []Addon) (*Catalog, error) {
	c := &Catalog{
		tiers:  make(map[string]Tier, len(tiers)),
		addons: make(map[string]Addon, len(addons)),
	}
	for _, t := range tiers {
		if t.ID == "" {
			return nil, fmt.Errorf("catalog: tier with empty id")
		}
		if _, dup := c.tiers[t.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate tier %q", t.ID)
		}
		c.tiers[t.ID] = t
		c.tierOrder = append(c.tierOrder, t.ID)
	}
	for _, a := range addons {
		if a.ID == "" {
			return nil, fmt.Errorf("catalog: addon with empty id")
		}
		if _, dup := c.addons[a.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate addon %q", a.ID)
		}
		c.addons[a.ID] = a
		c.addOrder = append(c.addOrder, a.ID)
	}
	return c, nil
}

// Tier returns the tier definition for id.
func (c *Catalog) Tier(id string) (Tier, bool) {
	t, ok := c.tiers[id]
	return t, ok
}

// Addon returns the add-on definition for id.
func (c *Catalog) Addon(id string) (Addon, bool) {
	a, ok := c.addons[id]
	return a, ok
}

// Tiers lists all tiers in declaration order.
func (c *Catalog) Tiers() []Tier {
	out := make([]Tier, 0, len(c.tierOrder))
	for _, id := range c.tierOrder {
		out = append(out, c.tiers[id])
	}
	return out
}

// Addons lists all add-ons in declaration order.
func (c *Catalog) Addons() []Addon {
	out := make([]Addon, 0, len(c.addOrder))
	for _, id := range c.addOrder {
		out = append(out, c.addons[id])
	}
	return out
}

// Total computes tier price plus the prices of the selected add-ons. Unknown
// add-on ids contribute nothing; callers validate membership on selection.
func (c *Catalog) Total(tierID string, addonIDs []string) int {
	total := 0
	if t, ok := c.tiers[tierID]; ok {
		total += t.Price
	}
	for _, id := range addonIDs {
		if a, ok := c.addons[id]; ok {
			total += a.Price
		}
	}
	return total
}

// AddonNames resolves add-on ids to display names, sorted for stable output.
func (c *Catalog) AddonNames(ids []string) []string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if a, ok := c.addons[id]; ok {
			names = append(names, a.Name)
		}
	}
	sort.Strings(names)
	return names
}

// Default returns the built-in service catalog used when the config file does
// not override it.
func Default() *Catalog {
	c, err := New(defaultTiers, defaultAddons)
	if err != nil {
		panic(err)
	}
	return c
}

var defaultTiers = []Tier{
	{
		ID:    "basic",
		Name:  "📱 Basic Package",
		Price: 2500,
		Features: []string{
			"2 Social Media Platforms",
			"5 Posts per week",
			"Basic Analytics",
			"Content Creation",
			"24/7 Support",
		},
	},
	{
		ID:    "professional",
		Name:  "💼 Professional Package",
		Price: 5000,
		Features: []string{
			"4 Social Media Platforms",
			"10 Posts per week",
			"Advanced Analytics",
			"Content Strategy",
			"Ad Management",
			"Monthly Reports",
			"Priority Support",
		},
	},
	{
		ID:    "enterprise",
		Name:  "🚀 Enterprise Package",
		Price: 10000,
		Features: []string{
			"All Social Media Platforms",
			"15+ Posts per week",
			"Competitor Analysis",
			"Custom Strategy",
			"Full Ad Campaigns",
			"Weekly Reports",
			"Dedicated Account Manager",
			"24/7 Premium Support",
		},
	},
}

var defaultAddons = []Addon{
	{ID: "video", Name: "🎥 Video Content", Price: 1000},
	{ID: "analytics", Name: "📊 Advanced Analytics", Price: 500},
	{ID: "seo", Name: "🔍 SEO Optimization", Price: 750},
	{ID: "emergency", Name: "🚨 Emergency Support", Price: 1500},
}
