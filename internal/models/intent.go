package models

// Intent is the classified purpose of an utterance.
type Intent string

const (
	IntentSchedule Intent = "schedule"
	IntentQuestion Intent = "question"
	IntentPurchase Intent = "purchase"
)

// Category identifies an accessory topic used for shopping links.
type Category string

const (
	CategoryEngineOil     Category = "engine-oil"
	CategoryAirFilter     Category = "air-filter"
	CategoryBrakePad      Category = "brake-pad"
	CategoryBrakeFluid    Category = "brake-fluid"
	CategoryCoolant       Category = "coolant"
	CategoryBattery       Category = "battery"
	CategoryTire          Category = "tire"
	CategoryWiper         Category = "wiper"
	CategorySparkPlug     Category = "spark-plug"
	CategoryFuelAdditive  Category = "fuel-additive"
	CategoryOBDScanner    Category = "obd-scanner"
	CategoryHeadlight     Category = "headlight"
	CategoryInteriorLight Category = "interior-light"
	CategoryDashcam       Category = "dashcam"
	CategoryFuse          Category = "fuse"
	CategoryCarWash       Category = "car-wash-supplies"
	CategoryAirFreshener  Category = "air-freshener"
	CategoryCharger       Category = "charger"
	CategoryTireChain     Category = "tire-chain"
)
