package pii

// tierByType is the static sensitivity table. Types absent from the table
// classify as sensitive so an unknown type is never under-protected.
var tierByType = map[EntityType]Tier{
	TypePhone:         TierDirect,
	TypeEmail:         TierDirect,
	TypeIDNumber:      TierDirect,
	TypePassport:      TierDirect,
	TypeDriverLicense: TierDirect,
	TypeName:          TierQuasi,
	TypeIP:            TierQuasi,
	TypeAddress:       TierQuasi,
	TypeDateOfBirth:   TierQuasi,
	TypeBankCard:      TierSensitive,
}

// KnownTypes returns every entity type the classifier knows, in a stable order.
func KnownTypes() []EntityType {
	return []EntityType{
		TypeEmail, TypePhone, TypeIDNumber, TypePassport, TypeDriverLicense,
		TypeBankCard, TypeIP, TypeName, TypeAddress, TypeDateOfBirth,
	}
}

// Tiers returns all sensitivity tiers in descending severity.
func Tiers() []Tier {
	return []Tier{TierDirect, TierQuasi, TierSensitive}
}

// TierFor maps an entity type to its sensitivity tier.
func TierFor(t EntityType) Tier {
	if tier, ok := tierByType[t]; ok {
		return tier
	}
	return TierSensitive
}

// Classify returns a copy of the entity with its tier assigned.
func Classify(e Entity) Entity {
	e.Tier = TierFor(e.Type)
	return e
}

// GroupByTier partitions entities by sensitivity tier. Every tier is present
// in the result, possibly with an empty slice, so callers never hit a
// missing key.
func GroupByTier(entities []Entity) map[Tier][]Entity {
	groups := make(map[Tier][]Entity, len(Tiers()))
	for _, tier := range Tiers() {
		groups[tier] = []Entity{}
	}
	for _, e := range entities {
		tier := TierFor(e.Type)
		groups[tier] = append(groups[tier], e)
	}
	return groups
}

// GroupByType partitions entities by type. Every known type is present in
// the result even when empty; unknown types are added as encountered.
func GroupByType(entities []Entity) map[EntityType][]Entity {
	groups := make(map[EntityType][]Entity, len(KnownTypes()))
	for _, t := range KnownTypes() {
		groups[t] = []Entity{}
	}
	for _, e := range entities {
		groups[e.Type] = append(groups[e.Type], e)
	}
	return groups
}
