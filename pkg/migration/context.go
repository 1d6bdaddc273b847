package migration

// Context is the small typed state threaded between steps. The prepare step
// populates it; later steps only read it.
type Context struct {
	DefaultLanguageID   int64
	DefaultLanguageCode string

	// AttributeIDs maps source entity kind -> attribute code -> eav_attribute id.
	AttributeIDs map[string]map[string]int64

	// CurrencyRates holds the source conversion rates keyed by target currency
	// code, all from AUD.
	CurrencyRates map[string]float64
}

func NewContext() *Context {
	return &Context{
		AttributeIDs:  make(map[string]map[string]int64),
		CurrencyRates: make(map[string]float64),
	}
}

// AttributeID looks up the eav_attribute id for an entity kind and code.
func (c *Context) AttributeID(entity, code string) (int64, bool) {
	attrs, ok := c.AttributeIDs[entity]
	if !ok {
		return 0, false
	}
	id, ok := attrs[code]
	return id, ok
}

// SetAttributeIDs stores the attribute map for one entity kind.
func (c *Context) SetAttributeIDs(entity string, attrs map[string]int64) {
	c.AttributeIDs[entity] = attrs
}
