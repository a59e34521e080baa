package xcache

import (
	"github.com/omeyang/xeveapi/pkg/eveapi/xapi"
)

// 三分钟缓存窗口。
const windowXML = `<?xml version='1.0' encoding='UTF-8'?>
<eveapi version="2">
  <currentTime>2014-01-01 00:00:00</currentTime>
  <result><serverOpen>True</serverOpen></result>
  <cachedUntil>2014-01-01 00:03:00</cachedUntil>
</eveapi>`

const noWindowXML = `<eveapi version="2"><result><a>1</a></result></eveapi>`

const errorXML = `<?xml version='1.0' encoding='UTF-8'?>
<eveapi version="2">
  <currentTime>2014-01-01 00:00:00</currentTime>
  <error code="203">Authentication failure.</error>
  <cachedUntil>2014-01-02 00:00:00</cachedUntil>
</eveapi>`

func testIdentity(method string) xapi.Identity {
	return xapi.Identity{
		KeyID:  "42",
		VCode:  "secret",
		Scope:  "char",
		Method: method,
		Params: xapi.Params{"characterID": "1"},
	}
}
