// internal/relevance/gate/keywords.go
package gate

// DefaultPatterns are matched in order against the normalized question.
// Normalization strips ASCII punctuation first, so entries containing
// hyphens or apostrophes only match text that survives that step.
var DefaultPatterns = []string{
	`\bwalmart\b`, `\bsam['s]? club\b`, `\bwalmart connect\b`, `\bretail link\b`,
	`\bsupplier center\b`, `\bwalmart supplier portal\b`, `\bmodular\b`, `\bin-store merchandising\b`,
	`\bsupplier agreement\b`, `\bwalmart terms\b`, `\bstore planning\b`, `\bon-time in full\b`,
	`\botif\b`, `\bsustainability\b`, `\bcompliance\b`, `\belectronic product code\b`, `\bepc\b`,
	`\bpackaging\b`, `\bshipping\b`, `\bwarehouse\b`, `\bdelivery\b`, `\bdistribution center\b`,
	`\bsupplier security\b`, `\bglobal supplier\b`, `\bedi\b`, `\binvoice\b`, `\bupc\b`,
	`\bbarcode\b`, `\blabeling\b`, `\bfreight\b`, `\bcollect-ready\b`, `\bmust arrive by date\b`,
	`\bmabd\b`, `\binventory management\b`, `\bforecasting\b`, `\breplenishment\b`,
	`\bgeneral merchandise\b`, `\bproduct listing\b`, `\bexecution requirements\b`, `\boms\b`,
	`\blogistics\b`, `\bvendor agreement\b`, `\bonline marketplace\b`, `\bthird-party marketplace\b`,
	`\bwalmart marketplace\b`, `\bvba\b`, `\bsupplier compliance\b`, `\bsuppliers?\b`,
	`\bsupply chain\b`, `\bmerchandise\b`, `\bpurchase order\b`, `\bpo\b`, `\bcase pack\b`,
	`\bmaster pack\b`, `\bpackaging specification\b`, `\bitem file\b`, `\breceiving\b`, `\bcarrier\b`,
	`\bpayables\b`, `\bvpn\b`, `\bnew item setup\b`, `\bmod creation\b`, `\bmod changes\b`,
	`\brack and stack\b`, `\bshelf management\b`, `\bmarket manager\b`, `\baccount manager\b`,
	`\bin-store compliance\b`, `\bin-store standards\b`, `\bhazardous materials\b`, `\bhazmat\b`,
	`\bstorm compliance\b`, `\brfid\b`, `\bgs1\b`, `\bglobal data synchronization network\b`,
	`\bgdsn\b`, `\bdata sync\b`, `\bretail industry\b`, `\bclub channel\b`, `\bprivate label\b`,
	`\bgreat value\b`, `\bbrand guidelines\b`, `\bpackaging design\b`, `\bexecution tracking\b`,
	`\breturns policy\b`, `\bwalmart store returns\b`, `\bstore claims\b`, `\bdispute resolution\b`,
	`\bvendor compliance\b`, `\bmonetary fines\b`, `\bchargebacks\b`, `\broot cause\b`,
	`\bglobal compliance\b`, `\bproduct safety\b`, `\bfood safety\b`, `\bbakery supplier\b`,
	`\bproduce supplier\b`, `\bmeat supplier\b`, `\bconsumables supplier\b`,
	`\bhealth and wellness supplier\b`, `\bonline grocery\b`, `\bclick and collect\b`,
	`\bpickup tower\b`, `\bdrone delivery\b`, `\bjet.com\b`, `\bfulfillment\b`,
	`\bwalmart fulfillment services\b`, `\breturns center\b`, `\bapparel supplier\b`,
	`\belectronics supplier\b`, `\btoy supplier\b`, `\bimport requirements\b`, `\btariffs\b`,
	`\bharmonized tariff schedule\b`, `\bhs code\b`, `\bcountry of origin\b`, `\blead time\b`,
	`\bmodule changes\b`, `\bexecution guide\b`, `\bcompliance guide\b`, `\bcorporate compliance\b`,
	`\bcorporate responsibility\b`, `\bethics\b`, `\bconduct\b`, `\binvoice matching\b`,
	`\baccounts payable\b`, `\bremittance\b`, `\bbilling disputes\b`, `\bremittance advice\b`,
	`\bpayment terms\b`, `\bsam's club suppliers?\b`, `\bselling at walmart\b`,
	`\bproduct onboarding\b`, `\bproduct compliance\b`, `\bonline item file\b`,
	`\bproduct development\b`, `\bwalmart labs\b`, `\bmerchandising portal\b`,
}
