// Package catalog holds the static lookup tables consumed by the
// production orchestrator: the plan catalog, the per-category shot preset
// lists, the per-category kit-angle lists, and the video preset library.
//
// Every category table carries an "Other" entry used as the fallback
// whenever an unrecognized category is encountered, so lookups never fail.
package catalog

import "github.com/shopshot/shopshot/pkg/models"

// Catalog is the read-only lookup surface handed to the orchestrator and
// the HTTP handlers. Tables are fixed at construction; a production run
// never observes a mid-run change.
type Catalog struct {
	plans        map[models.PlanID]models.PlanConfig
	presets      map[models.MainCategory][]string
	kitAngles    map[models.MainCategory][]string
	videoPresets []models.VideoPreset
}

// New returns the built-in catalog.
func New() *Catalog {
	return &Catalog{
		plans:        defaultPlans(),
		presets:      defaultPresets(),
		kitAngles:    defaultKitAngles(),
		videoPresets: defaultVideoPresets(),
	}
}

// Plan returns the configuration for id, falling back to the free plan.
func (c *Catalog) Plan(id models.PlanID) models.PlanConfig {
	if p, ok := c.plans[id]; ok {
		return p
	}
	return c.plans[models.PlanFree]
}

// Plans returns every plan in the catalog.
func (c *Catalog) Plans() []models.PlanConfig {
	out := make([]models.PlanConfig, 0, len(c.plans))
	for _, id := range []models.PlanID{models.PlanFree, models.PlanPro, models.PlanPremium} {
		out = append(out, c.plans[id])
	}
	return out
}

// Presets returns the shot preset list for a category, with the "Other"
// table as fallback.
func (c *Catalog) Presets(cat models.MainCategory) []string {
	if p, ok := c.presets[cat]; ok {
		return p
	}
	return c.presets[models.CategoryOther]
}

// KitAngles returns the kit-angle list for a category, with the "Other"
// table as fallback.
func (c *Catalog) KitAngles(cat models.MainCategory) []string {
	if a, ok := c.kitAngles[cat]; ok {
		return a
	}
	return c.kitAngles[models.CategoryOther]
}

// KitShots returns the first size entries of the category's kit-angle
// list. A size larger than the table yields the whole table.
func (c *Catalog) KitShots(cat models.MainCategory, size int) []string {
	angles := c.KitAngles(cat)
	if size < 0 {
		size = 0
	}
	if size > len(angles) {
		size = len(angles)
	}
	return angles[:size]
}

// VideoPresets returns the motion preset library.
func (c *Catalog) VideoPresets() []models.VideoPreset {
	return c.videoPresets
}

// VideoPreset looks up a motion preset by ID.
func (c *Catalog) VideoPreset(id string) (models.VideoPreset, bool) {
	for _, p := range c.videoPresets {
		if p.ID == id {
			return p, true
		}
	}
	return models.VideoPreset{}, false
}

func defaultPlans() map[models.PlanID]models.PlanConfig {
	return map[models.PlanID]models.PlanConfig{
		models.PlanFree: {
			ID:         models.PlanFree,
			Name:       "Free Trial",
			Price:      0,
			TokenGrant: 10,
			Watermark:  true,
			CanTopUp:   false,
			Features: models.PlanFeatures{
				Kit:    true,
				Angles: true,
				Zip:    true,
			},
		},
		models.PlanPro: {
			ID:         models.PlanPro,
			Name:       "Pro Plan",
			Price:      999,
			TokenGrant: 50,
			CanTopUp:   true,
			Features: models.PlanFeatures{
				Kit:       true,
				Angles:    true,
				Zip:       true,
				SEO:       true,
				CSV:       true,
				SKUNaming: true,
			},
		},
		models.PlanPremium: {
			ID:         models.PlanPremium,
			Name:       "Premium Plan",
			Price:      1999,
			TokenGrant: 150,
			CanTopUp:   true,
			Features: models.PlanFeatures{
				Kit:             true,
				Angles:          true,
				Zip:             true,
				SEO:             true,
				CSV:             true,
				SKUNaming:       true,
				VideoGeneration: true,
			},
		},
	}
}

func defaultPresets() map[models.MainCategory][]string {
	return map[models.MainCategory][]string{
		models.CategoryFashion:     {"Main Hero Wear", "Side Angle View", "Detail Closeup", "Lifestyle Context", "Editorial Shot"},
		models.CategoryJewellery:   {"Luxury Studio Shot", "Macro Detail", "Model Wear Shot", "Angle View", "Elegant Context"},
		models.CategoryElectronics: {"Tech Packshot", "Ports & Side Profile", "Interface Macro", "Handheld Usage", "Workspace Scene"},
		models.CategoryBeauty:      {"Product Packshot", "Texture Swatch", "Application Shot", "Packaging Depth", "Minimalist Vanity"},
		models.CategoryFMCG:        {"Surface Packshot", "3/4 Angle View", "Label Detail", "Serving Action", "Lifestyle Table"},
		models.CategoryHome:        {"Isolated Product", "Room Interior", "Functional Usage", "Material Macro", "Spatial Profile"},
		models.CategoryFootwear:    {"Side-Front Studio", "Sole & Heel Profile", "Material Focus", "On-Model Walking", "Outdoor Context"},
		models.CategoryOther:       {"Hero Shot", "Alternate View", "Close-up Shot", "Usage Shot", "Contextual Scene"},
	}
}

func defaultKitAngles() map[models.MainCategory][]string {
	return map[models.MainCategory][]string{
		models.CategoryFashion:     {"Front View", "Back View", "45 Degree View", "Side Profile", "Detail Closeup"},
		models.CategoryJewellery:   {"Front Closeup", "Wear Shot", "45 Degree Closeup", "Macro Detail", "Lifestyle Wear"},
		models.CategoryFootwear:    {"Side View", "Front View", "Back View", "Top View", "On-Foot Wear"},
		models.CategoryElectronics: {"Front View", "Back View", "Side Profile", "45 Degree View", "In-Hand Usage"},
		models.CategoryBeauty:      {"Front Packshot", "45 Degree Packshot", "Texture Swatch", "Hand Application", "Vanity Lifestyle"},
		models.CategoryFMCG:        {"Front Packshot", "45 Degree Packshot", "Top View", "Ingredient Closeup", "Usage Context"},
		models.CategoryHome:        {"Front View", "45 Degree Room View", "Side View", "Texture Detail", "Lifestyle Room Setup"},
		models.CategoryOther:       {"Hero Shot", "Alternate View", "Close-up Shot", "Usage Shot", "Contextual Scene"},
	}
}

func defaultVideoPresets() []models.VideoPreset {
	return []models.VideoPreset{
		{
			ID:          "jewellery_model_closeup",
			Label:       "Jewellery – On Model",
			Description: "High-end close-up with a model turning head left and right. Subtle earring swing.",
			Category:    models.CategoryJewellery,
			Prompt:      "A premium jewellery product video. A professional female fashion model wearing the exact jewellery. Natural soft smile. Model gently turns head left and right. Earrings swing subtly with movement. Camera remains stable, medium close-up framing. Soft studio lighting, neutral background. Luxury fashion catalog look. No text, no branding, no watermark. Focus strictly on jewellery.",
		},
		{
			ID:          "jewellery_flat_lay",
			Label:       "Jewellery – Flat Lay 360",
			Description: "Slow 360 rotation on premium surface. Macro focus on craftsmanship.",
			Category:    models.CategoryJewellery,
			Prompt:      "A flat lay product video. The jewellery placed on premium fabric or matte surface. Slow 360-degree rotation. Macro focus on stones, polish, and craftsmanship. Soft directional lighting. Clean white or luxury neutral background. No hands, no humans. No text or logo overlays.",
		},
		{
			ID:          "fashion_model",
			Label:       "Fashion – On Model",
			Description: "Subtle rotation to show front and side fit. Focus on fabric fall.",
			Category:    models.CategoryFashion,
			Prompt:      "A fashion product video. Model wearing the exact clothing product. Neutral expression with confident posture. Subtle body rotation to show front and side view. Natural fabric movement visible. Studio lighting with soft shadows. Plain background. No runway walk. No dramatic posing. No text or logos.",
		},
		{
			ID:          "product_turntable",
			Label:       "Product – Turntable",
			Description: "Pure catalog turntable rotation for bags, shoes, and non-wearables.",
			Category:    models.CategoryOther,
			Prompt:      "A product showcase video. The product placed on a neutral studio surface. Slow turntable rotation. Multiple angles visible naturally. Soft shadows and clean lighting. No human interaction. No branding or text overlays. Pure catalog-grade presentation.",
		},
	}
}
