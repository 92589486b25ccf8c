package domain

// 交易所合约常量
const (
	DexContract = "dex"

	orderTypeLimit   = 1
	orderSideBuy     = 1
	orderSideSell    = 2
	fillTypePostOnly = 2

	defaultProcessQueue = 50
)

// Authorization 链上动作授权
type Authorization struct {
	Actor      string `json:"actor"`
	Permission string `json:"permission"`
}

// Action 未签名的链上动作
type Action struct {
	Account       string          `json:"account"`
	Name          string          `json:"name"`
	Authorization []Authorization `json:"authorization,omitempty"`
	Data          any             `json:"data"`
}

// ExtendedSymbol 带合约的币种符号
type ExtendedSymbol struct {
	Sym      string `json:"sym"`
	Contract string `json:"contract"`
}

// TransferData 入金动作参数
type TransferData struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Quantity string `json:"quantity"`
	Memo     string `json:"memo"`
}

// PlaceOrderData 下单动作参数，数量与价格为链上整数单位
type PlaceOrderData struct {
	MarketID     int64          `json:"market_id"`
	Account      string         `json:"account"`
	OrderType    int            `json:"order_type"`
	OrderSide    int            `json:"order_side"`
	Quantity     int64          `json:"quantity"`
	Price        int64          `json:"price"`
	BidSymbol    ExtendedSymbol `json:"bid_symbol"`
	AskSymbol    ExtendedSymbol `json:"ask_symbol"`
	TriggerPrice int64          `json:"trigger_price"`
	FillType     int            `json:"fill_type"`
	Referrer     string         `json:"referrer"`
}

// ProcessData 撮合队列处理参数
type ProcessData struct {
	QSize        int `json:"q_size"`
	ShowErrorMsg int `json:"show_error_msg"`
}

// CancelOrderData 撤单参数
type CancelOrderData struct {
	Account string `json:"account"`
	OrderID string `json:"order_id"`
}

// ActionBuilder 为指定账户构造交易所动作
type ActionBuilder struct {
	account      string
	processQueue int
}

// NewActionBuilder 创建动作构造器，processQueue <= 0 时使用默认队列长度
func NewActionBuilder(account string, processQueue int) *ActionBuilder {
	if processQueue <= 0 {
		processQueue = defaultProcessQueue
	}
	return &ActionBuilder{account: account, processQueue: processQueue}
}

// Account 返回账户名
func (b *ActionBuilder) Account() string { return b.account }

// PlaceOrder 生成一张限价单所需的入金与下单两个动作。
// 卖单存入基础币数量，买单存入计价币金额。
func (b *ActionBuilder) PlaceOrder(m *Market, o DesiredOrder) ([]Action, error) {
	var (
		depositToken Token
		depositQty   = o.Quantity
		side         = orderSideSell
	)
	if o.Side == SideBuy {
		notional, err := o.Notional(m)
		if err != nil {
			return nil, err
		}
		depositToken, depositQty, side = m.AskToken, notional, orderSideBuy
	} else {
		depositToken = m.BidToken
	}

	qtyUnits, err := depositToken.ToUnits(depositQty)
	if err != nil {
		return nil, err
	}
	priceUnits, err := m.AskToken.ToUnits(o.Price)
	if err != nil {
		return nil, err
	}
	if qtyUnits == 0 || priceUnits == 0 {
		return nil, &ArithmeticError{Op: "place order", Value: depositToken.Asset(depositQty) + " @ " + o.Price.String()}
	}

	return []Action{
		{
			Account: depositToken.Contract,
			Name:    "transfer",
			Data: TransferData{
				From:     b.account,
				To:       DexContract,
				Quantity: depositToken.Asset(depositQty),
				Memo:     "",
			},
		},
		{
			Account: DexContract,
			Name:    "placeorder",
			Data: PlaceOrderData{
				MarketID:  m.ID,
				Account:   b.account,
				OrderType: orderTypeLimit,
				OrderSide: side,
				Quantity:  qtyUnits,
				Price:     priceUnits,
				BidSymbol: ExtendedSymbol{Sym: m.BidToken.Symbol(), Contract: m.BidToken.Contract},
				AskSymbol: ExtendedSymbol{Sym: m.AskToken.Symbol(), Contract: m.AskToken.Contract},
				FillType:  fillTypePostOnly,
			},
		},
	}, nil
}

// Process 撮合队列处理动作
func (b *ActionBuilder) Process() Action {
	return Action{
		Account: DexContract,
		Name:    "process",
		Data:    ProcessData{QSize: b.processQueue, ShowErrorMsg: 0},
	}
}

// CancelOrder 撤单动作
func (b *ActionBuilder) CancelOrder(orderID string) Action {
	return Action{
		Account: DexContract,
		Name:    "cancelorder",
		Data:    CancelOrderData{Account: b.account, OrderID: orderID},
	}
}
