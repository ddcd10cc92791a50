package extractor

import (
	"fmt"
	"strings"
)

const promptTemplate = `You are an expert at parsing food inventory transcripts. Extract ALL items mentioned with their actions and quantities.

TRANSCRIPT: "%s"

AVAILABLE INVENTORY ITEMS: %s

INSTRUCTIONS:
1. QUANTITY CONVERSION: Convert text quantities to numbers:
   - "half" or "1/2" -> 0.5
   - "quarter" or "1/4" -> 0.25
   - "a dozen" -> 12

2. ACTION MAPPING:
   - Words like "used", "ate", "consumed", "cooked with", "finished" -> "remove"
   - Words like "added", "bought", "put in", "restocked", "got" -> "add"

3. ITEM MATCHING: Match mentioned items to available inventory items (case-insensitive, partial matches OK).

4. UNIT EXTRACTION: Extract units like "slices", "cups", "pieces", "grams", etc. If no unit mentioned, leave empty.

5. CATEGORY: Assign one of: Dairy, Vegetables, Fruits, Meats, Other. Default to "Other" if unclear.

6. EXPIRY: For "add" actions, estimate a shelf life in whole days as "estimatedExpiryDays" based on common shelf lives (fresh milk 7, leafy greens 5, raw chicken 2, apples 30, bread 5, eggs 21, canned goods 180). Omit the field for "remove" actions or when no reasonable estimate exists.

7. MULTIPLE ITEMS: If the transcript mentions multiple items (e.g. "2 eggs and 3 slices of cheese"), extract each as a separate item.

Respond with only valid JSON of this shape:
{
  "items": [
    {"action": "remove", "itemName": "egg", "quantity": 2, "unit": "pieces", "category": "Other"},
    {"action": "add", "itemName": "milk", "quantity": 1, "unit": "L", "category": "Dairy", "estimatedExpiryDays": 7}
  ]
}

Be thorough and extract every item mentioned. If unclear, make reasonable assumptions based on context.`

// buildPrompt renders the extraction prompt for one transcript.
func buildPrompt(transcript string, inventoryNames []string) string {
	return fmt.Sprintf(promptTemplate, transcript, strings.Join(inventoryNames, ", "))
}
