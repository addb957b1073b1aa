package contract

// AssetABI is the interface of the deployed asset tokenization contract.
// It is static configuration; nothing is discovered at runtime.
//
// Write functions:
//
//	createToken(string,string,uint256,uint256)
//	setTokenSellingPrice(uint256,uint256)
//	transferToken(address,uint256)
//	purchaseToken(uint256)                payable
//	redemptionRequest(uint256)
//	activateToken(uint256)
//	burnToken(uint256,bytes32)
//	attachCertificate(uint256,bytes)
//
// Read functions: tokens(uint256), tokenSellingPrice(uint256).
const AssetABI = `[
  {"type":"function","name":"createToken","stateMutability":"nonpayable",
   "inputs":[{"name":"name","type":"string"},{"name":"description","type":"string"},{"name":"value","type":"uint256"},{"name":"validity","type":"uint256"}],
   "outputs":[]},
  {"type":"function","name":"setTokenSellingPrice","stateMutability":"nonpayable",
   "inputs":[{"name":"tokenId","type":"uint256"},{"name":"newPrice","type":"uint256"}],
   "outputs":[]},
  {"type":"function","name":"transferToken","stateMutability":"nonpayable",
   "inputs":[{"name":"to","type":"address"},{"name":"tokenId","type":"uint256"}],
   "outputs":[]},
  {"type":"function","name":"purchaseToken","stateMutability":"payable",
   "inputs":[{"name":"tokenId","type":"uint256"}],
   "outputs":[]},
  {"type":"function","name":"redemptionRequest","stateMutability":"nonpayable",
   "inputs":[{"name":"tokenId","type":"uint256"}],
   "outputs":[]},
  {"type":"function","name":"activateToken","stateMutability":"nonpayable",
   "inputs":[{"name":"tokenId","type":"uint256"}],
   "outputs":[]},
  {"type":"function","name":"burnToken","stateMutability":"nonpayable",
   "inputs":[{"name":"tokenId","type":"uint256"},{"name":"redemptionCode","type":"bytes32"}],
   "outputs":[]},
  {"type":"function","name":"attachCertificate","stateMutability":"nonpayable",
   "inputs":[{"name":"tokenId","type":"uint256"},{"name":"certificate","type":"bytes"}],
   "outputs":[]},
  {"type":"function","name":"tokens","stateMutability":"view",
   "inputs":[{"name":"","type":"uint256"}],
   "outputs":[{"name":"name","type":"string"},{"name":"description","type":"string"},{"name":"initialValue","type":"uint256"},{"name":"state","type":"uint8"},{"name":"owner","type":"address"}]},
  {"type":"function","name":"tokenSellingPrice","stateMutability":"view",
   "inputs":[{"name":"","type":"uint256"}],
   "outputs":[{"name":"","type":"uint256"}]},

  {"type":"event","name":"TokenCreated","anonymous":false,
   "inputs":[{"name":"tokenId","type":"uint256","indexed":true},{"name":"name","type":"string","indexed":false},{"name":"description","type":"string","indexed":false},{"name":"value","type":"uint256","indexed":false},{"name":"owner","type":"address","indexed":false}]},
  {"type":"event","name":"TokenActivated","anonymous":false,
   "inputs":[{"name":"tokenId","type":"uint256","indexed":true},{"name":"tokenizer","type":"address","indexed":false},{"name":"owner","type":"address","indexed":false}]},
  {"type":"event","name":"TokenPurchased","anonymous":false,
   "inputs":[{"name":"tokenId","type":"uint256","indexed":true},{"name":"buyer","type":"address","indexed":true},{"name":"price","type":"uint256","indexed":false}]},
  {"type":"event","name":"RedemptionRequested","anonymous":false,
   "inputs":[{"name":"tokenId","type":"uint256","indexed":true},{"name":"owner","type":"address","indexed":false}]},
  {"type":"event","name":"TokenBurned","anonymous":false,
   "inputs":[{"name":"tokenId","type":"uint256","indexed":true},{"name":"tokenizer","type":"address","indexed":false},{"name":"redemptionCode","type":"bytes32","indexed":false}]}
]`

// DefaultEvents is the event set the session subscribes to.
var DefaultEvents = []string{
	"TokenCreated",
	"TokenActivated",
	"TokenPurchased",
	"RedemptionRequested",
	"TokenBurned",
}

// Token lifecycle states as stored in tokens(id).state.
var tokenStates = []string{"Created", "Active", "Listed", "RedemptionRequested", "Burned"}

// StateName returns a label for a raw token state.
func StateName(state uint8) string {
	if int(state) < len(tokenStates) {
		return tokenStates[state]
	}
	return "Unknown"
}
