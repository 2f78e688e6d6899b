package descriptions

import (
	"fmt"
	"strings"

	"github.com/wiebekaai/ecommerce-skills/pkg/agent"
)

// systemInstruction pins the copywriting style for every batch. The
// two worked examples anchor tone and length so output stays uniform
// across batches and runs.
const systemInstruction = `You write product copy for an online store.

For every product you receive you produce two fields:
- "description": one paragraph of 40 to 60 words, plain text, no markdown.
- "longDescription": two or three paragraphs of 120 to 180 words in total, plain text, paragraphs separated by a blank line.

Rules:
- Write in the second person and the active voice.
- Use only facts present in the product attributes. Never invent materials, dimensions, origins or certifications.
- No superlatives, no exclamation marks, no emoji.
- Do not open with the product title verbatim.
- If an attribute is missing, write around it instead of guessing.

Example product:
Title: Linen Throw Pillow | Brand: Casa Norte | Type: Cushions | Tags: linen, living room

Example description:
Soft stonewashed linen gives this throw pillow a lived-in feel from day one. The loose weave keeps it breathable through warm evenings, while the muted tone settles into most palettes. A concealed zip makes the cover easy to slip off and wash.

Example product:
Title: Enamel Pour-Over Kettle | Brand: Morra | Type: Kettles | Tags: coffee, enamel, stovetop

Example description:
A slim gooseneck spout gives you a slow, steady stream for even pour-over extraction. The enamel body heats quickly on any stovetop, including induction, and wipes clean without scrubbing. Its wooden handle stays cool, so you can pour straight from the boil.`

// BuildPrompt renders one batch as a numbered product list. Only
// attributes with content make it into the prompt, so the model never
// sees empty placeholders.
func BuildPrompt(batch []Record) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Write a description and a longDescription for each of the following %d products.\n", len(batch))
	b.WriteString("Return exactly one result per product, in the same order as listed.\n")

	for i, rec := range batch {
		fmt.Fprintf(&b, "\n%d. Title: %s\n", i+1, rec.Title)

		if v := strings.TrimSpace(rec.Brand); v != "" {
			fmt.Fprintf(&b, "   Brand: %s\n", v)
		}
		if v := strings.TrimSpace(rec.ProductType); v != "" {
			fmt.Fprintf(&b, "   Type: %s\n", v)
		}
		if len(rec.Tags) > 0 {
			fmt.Fprintf(&b, "   Tags: %s\n", strings.Join(rec.Tags, ", "))
		}
		if v := strings.TrimSpace(rec.Description); v != "" {
			fmt.Fprintf(&b, "   Current description: %s\n", v)
		}

		for _, mf := range rec.Metafields {
			if strings.TrimSpace(mf.Value) == "" {
				continue
			}
			fmt.Fprintf(&b, "   %s.%s: %s\n", mf.Namespace, mf.Key, mf.Value)
		}
	}

	return b.String()
}

// ResultSchema constrains one generation call to exactly n results in
// input order. The service enforces it, so a successful call is
// guaranteed parseable; the count is still re-checked on our side.
func ResultSchema(n int) *agent.Schema {
	item := agent.Object(map[string]*agent.Schema{
		"description":     agent.String("one short paragraph of plain-text product copy"),
		"longDescription": agent.String("two to three paragraphs of plain-text product copy"),
	}, "description", "longDescription")

	return agent.Object(map[string]*agent.Schema{
		"products": agent.FixedArray(item, n),
	}, "products")
}
