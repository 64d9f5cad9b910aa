package security

// wordlist is the static pool verification codes are drawn from. All entries
// are short, lowercase and safe to paste into a plain-text profile bio.
var wordlist = []string{
	"acorn", "alley", "amber", "anchor", "apple", "apron", "arrow", "aspen",
	"atlas", "autumn", "badge", "bagel", "bamboo", "banjo", "barrel", "basil",
	"beacon", "berry", "birch", "bison", "blanket", "blossom", "bluff", "bolt",
	"bonfire", "border", "bottle", "boulder", "branch", "breeze", "brick", "bridge",
	"brook", "bubble", "bucket", "butter", "cabin", "cactus", "camera", "candle",
	"canoe", "canyon", "caramel", "carpet", "castle", "cedar", "cellar", "chalk",
	"cherry", "chimney", "cinder", "citrus", "clover", "cobalt", "cocoa", "comet",
	"compass", "copper", "coral", "cotton", "cradle", "crater", "crayon", "cricket",
	"crystal", "daisy", "dapple", "desert", "dewdrop", "dinghy", "dome", "donut",
	"drift", "dune", "dusk", "eagle", "easel", "echo", "ember", "engine",
	"fable", "falcon", "feather", "fern", "fiddle", "flint", "flute", "fog",
	"forest", "fossil", "fountain", "fox", "freckle", "frost", "galaxy", "garden",
	"garnet", "gate", "ginger", "glacier", "glade", "goblet", "goose", "granite",
	"grape", "gravity", "grove", "hammock", "harbor", "harvest", "hazel", "heart",
	"heron", "hickory", "hillside", "hollow", "honey", "horizon", "husk", "icicle",
	"indigo", "inlet", "iris", "island", "ivory", "jade", "jasper", "jigsaw",
	"jungle", "juniper", "kayak", "kernel", "kettle", "kiwi", "knoll", "lagoon",
	"lantern", "larch", "lattice", "lava", "lemon", "lilac", "lily", "linen",
	"lobster", "locket", "lotus", "lumber", "mango", "mantle", "maple", "marble",
	"meadow", "melon", "mesa", "mint", "mirror", "mitten", "monsoon", "morning",
	"mosaic", "moss", "mountain", "mulberry", "mural", "mustard", "nectar", "nettle",
	"nimbus", "north", "nutmeg", "oasis", "ocean", "olive", "onyx", "opal",
	"orbit", "orchard", "otter", "paddle", "pagoda", "parchment", "pasture", "pebble",
	"pecan", "pepper", "petal", "pigeon", "pine", "pistachio", "plume", "pond",
	"poplar", "poppy", "prairie", "prism", "pumpkin", "quail", "quarry", "quartz",
	"quill", "quilt", "raft", "rainbow", "raisin", "raven", "reef", "ribbon",
	"ridge", "ripple", "river", "roast", "rocket", "rooster", "rosemary", "rustic",
	"saddle", "saffron", "sage", "sandal", "sapphire", "scarlet", "seashell", "sequoia",
	"shadow", "shore", "sierra", "silver", "sleet", "slope", "snowcap", "sparrow",
	"spice", "spruce", "squall", "stone", "storm", "summit", "sunset", "syrup",
	"tangerine", "teapot", "tempest", "thicket", "thistle", "thunder", "tidepool", "timber",
	"toffee", "topaz", "trellis", "trout", "tulip", "tundra", "twilight", "umber",
}
