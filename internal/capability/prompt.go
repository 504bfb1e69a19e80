package capability

import (
	"strings"

	"github.com/shopshot/shopshot/pkg/models"
)

const analyzeInstruction = `Analyze this product for e-commerce. Return ONLY JSON.
Identify if the product is a wearable (Apparel, Jewellery, Footwear, Watches, Sunglasses).
Provide highly specific marketplace SEO metadata:
- SEO Title: 60-80 chars, includes type and material.
- SEO Description: 2-3 natural sentences about craftsmanship.
- Tags: 6-10 comma-separated keywords.`

const removeBackgroundInstruction = `TASK: BACKGROUND REMOVAL.
Identify the primary product in this image and remove its background completely.
The output MUST have a 100% transparent background (alpha channel).
Maintain the exact shape, color, and texture of the product.
No halos, artifacts, or remnants of the original background should remain.
Output as a PNG with transparency.`

const eligibilityInstruction = `SAFETY AUDIT: Analyze this product image for commercial video generation eligibility.
Is this product restricted? Restricted items include:
- Undergarments / Lingerie / Intimate apparel / Innerwear
- Swim Innerwear
- Offensive, sensitive, or unsafe items
Return ONLY a JSON object with "eligible" (boolean) and "reason" (string explaining why if ineligible).`

// videoSafetyPreamble wraps every motion preset prompt with the catalog
// quality constraints the marketplace presets assume.
const videoSafetyPreamble = `CATALOG QUALITY STANDARDS:
- High-end studio cinematography.
- Focus strictly on product design, color, and fit.
- NO extreme human emotions, no dramatic posing, no runway walking.
- NO text, logos, or watermarks.
- MOVEMENT: `

var categoryStyleRules = map[models.MainCategory]string{
	models.CategoryJewellery: `High-end macro photography. Focus on gemstones and metal luster. Background should be luxurious (velvet, marble, or elegant lifestyle). No faces unless "human" mode is selected.`,
	models.CategoryFashion:   `Professional apparel photography.`,
	models.CategoryFootwear:  `Focus on construction and style.`,
	models.CategoryBeauty:    `Premium packaging and product detail.`,
	models.CategoryOther:     `Clean commercial presentation.`,
}

// shotInstruction composes the full text instruction for a single shot
// render from the per-call parameters.
func shotInstruction(p GenerationParams) string {
	productName := "item"
	category := models.CategoryOther
	wearable := false
	if p.Analysis != nil {
		if p.Analysis.ProductName != "" {
			productName = p.Analysis.ProductName
		}
		category = p.Analysis.MainCategory
		wearable = p.Analysis.IsWearable
	}

	var mode string
	if wearable {
		switch p.WearableMode {
		case models.WearHuman:
			mode = "MODE: Wear on Human Model. Show the product naturally worn on the appropriate human body part. Neutral professional commercial pose. Faces allowed only if necessary for " + string(category) + "."
		case models.WearAuto:
			mode = "MODE: Auto (AI as Professional Photographer). Decide the best marketplace presentation: either on a human model or as a high-end standalone product. Follow best practices for " + string(category) + "."
		default:
			mode = "MODE: Only Product (No Human). Strictly NO human presence, hands, skin, or faces. Use studio lighting, white background, or controlled lifestyle surface."
		}
	} else {
		mode = "MODE: Product Only. NO human presence allowed."
	}

	branding := "No brand kit requested."
	if p.BrandLogo != "" {
		branding = `BRAND KIT ACTIVE:
- Incorporate the provided brand logo into the generated image.
- POSITION: Place the logo in the ` + strings.ReplaceAll(string(p.LogoPosition), "-", " ") + ` corner.
- SIZE: Logo must be 8% to 12% of the frame width.
- PADDING: Maintain 4% padding from edges.
- SAFETY: Never place the logo on faces, skin, or the product itself. Maintain 100% opacity.
- DO NOT distort or stretch the logo.`
	}

	watermark := "No watermark required."
	if p.Watermark {
		watermark = `PROTECTION PROTOCOL:
- Apply a central "ShopShot" logo watermark.
- POSITION: Center of the image.
- OPACITY: 80% transparent (very subtle/ghosted).
- SIZE: Scale to cover the central 30% of the frame.
- INTEGRITY: Do not distort original logo colors. Do not crop.`
	}

	styleRules, ok := categoryStyleRules[category]
	if !ok {
		styleRules = categoryStyleRules[models.CategoryOther]
	}

	background := p.Prompt
	if background == "" {
		background = "Professional studio lighting, high-end commercial backdrop."
	}

	var b strings.Builder
	b.WriteString("You are ShopShot, a professional photoshoot engine.\n\n")
	b.WriteString("TASK: Generate a photoshoot for \"" + productName + "\".\n")
	b.WriteString("SHOT TYPE: \"" + p.ShotType + "\".\n")
	b.WriteString("ASPECT RATIO: " + string(p.AspectRatio) + ".\n\n")
	b.WriteString("STYLE RULES:\n")
	b.WriteString("- " + mode + "\n")
	b.WriteString("- Category Specifics: " + styleRules + "\n")
	b.WriteString("- Product design and color MUST remain 100% accurate.\n")
	b.WriteString("- " + branding + "\n")
	b.WriteString("- " + watermark + "\n")
	b.WriteString("- Background: " + background)
	return b.String()
}
