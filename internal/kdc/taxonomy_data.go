package kdc

// Compiled-in KDC table. The main classes carry the broad vocabulary that
// synthesized entries inherit; curated entries carry their own terms.

var mainClasses = map[string]Entry{
	"0": {Label: "총류", Terms: []string{"총류", "백과사전", "사전", "연감", "도서관", "문헌정보", "서지", "저널리즘", "신문", "컴퓨터", "정보", "전집", "총서", "encyclopedia"}},
	"1": {Label: "철학", Terms: []string{"철학", "사상", "형이상학", "인식론", "논리학", "윤리", "심리", "심리학", "마음", "철학자", "philosophy", "psychology"}},
	"2": {Label: "종교", Terms: []string{"종교", "신앙", "불교", "기독교", "성경", "교회", "사찰", "신학", "religion"}},
	"3": {Label: "사회과학", Terms: []string{"사회", "경제", "경영", "정치", "법률", "교육", "행정", "사회학", "통계", "민속", "군사", "society", "economics"}},
	"4": {Label: "자연과학", Terms: []string{"과학", "수학", "물리", "화학", "천문", "생물", "지구과학", "자연", "science"}},
	"5": {Label: "기술과학", Terms: []string{"기술", "공학", "의학", "건강", "농업", "건축", "기계", "전기", "전자", "요리", "생활", "technology", "engineering"}},
	"6": {Label: "예술", Terms: []string{"예술", "미술", "음악", "사진", "디자인", "공예", "서예", "회화", "영화", "스포츠", "art"}},
	"7": {Label: "언어", Terms: []string{"언어", "어학", "문법", "회화 표현", "단어", "어휘", "발음", "외국어", "language", "grammar"}},
	"8": {Label: "문학", Terms: []string{"문학", "소설", "시집", "에세이", "수필", "희곡", "작가", "literature", "novel", "fiction"}},
	"9": {Label: "역사", Terms: []string{"역사", "사학", "왕조", "시대", "전기", "지리", "여행", "history", "biography"}},
}

var curatedEntries = []Entry{
	// 0 총류
	{Code: "004", Label: "컴퓨터과학", Terms: []string{"컴퓨터", "컴퓨터과학", "인공지능", "알고리즘", "네트워크", "computer science", "ai"}},
	{Code: "005", Label: "프로그래밍, 프로그램, 데이터", Terms: []string{"프로그래밍", "코딩", "파이썬", "자바", "데이터베이스", "소프트웨어", "python", "programming", "데이터"}},
	{Code: "010", Label: "도서학, 서지학", Terms: []string{"도서학", "서지학", "서지", "출판", "고서"}},
	{Code: "020", Label: "문헌정보학", Terms: []string{"문헌정보", "도서관", "사서", "분류", "목록"}},
	{Code: "030", Label: "백과사전", Terms: []string{"백과사전", "백과", "encyclopedia"}},
	{Code: "070", Label: "신문, 저널리즘", Terms: []string{"신문", "저널리즘", "언론", "기자", "journalism"}},

	// 1 철학
	{Code: "150", Label: "동양철학, 동양사상", Terms: []string{"동양철학", "유교", "공자", "노자", "장자", "성리학"}},
	{Code: "160", Label: "서양철학", Terms: []string{"서양철학", "칸트", "니체", "플라톤", "아리스토텔레스", "헤겔"}},
	{Code: "180", Label: "심리학", Terms: []string{"심리학", "심리", "마음", "감정", "무의식", "psychology"}},
	{Code: "190", Label: "윤리학, 도덕철학", Terms: []string{"윤리", "윤리학", "도덕", "가치관"}},
	{Code: "199", Label: "도덕훈, 교훈", Terms: []string{"자기계발", "처세", "성공", "인생", "교훈", "습관", "동기부여"}},

	// 2 종교
	{Code: "220", Label: "불교", Terms: []string{"불교", "부처", "사찰", "경전", "스님"}},
	{Code: "230", Label: "기독교", Terms: []string{"기독교", "성경", "예수", "교회", "신학", "목회"}},

	// 3 사회과학
	{Code: "320", Label: "경제학", Terms: []string{"경제", "경제학", "투자", "금융", "주식", "부동산", "economics"}},
	{Code: "325", Label: "경영", Terms: []string{"경영", "마케팅", "리더십", "조직", "창업", "기업", "management"}},
	{Code: "330", Label: "사회학, 사회문제", Terms: []string{"사회학", "사회문제", "불평등", "젠더", "노동", "복지"}},
	{Code: "340", Label: "정치학", Terms: []string{"정치", "정치학", "민주주의", "선거", "외교", "국제관계"}},
	{Code: "360", Label: "법률, 법학", Terms: []string{"법률", "법학", "헌법", "민법", "형법", "판례"}},
	{Code: "370", Label: "교육학", Terms: []string{"교육", "교육학", "학습", "교사", "학교", "육아"}},
	{Code: "380", Label: "풍습, 예절, 민속학", Terms: []string{"풍습", "예절", "민속", "전통문화", "의식주"}},

	// 4 자연과학
	{Code: "410", Label: "수학", Terms: []string{"수학", "대수", "기하", "미적분", "통계학", "mathematics"}},
	{Code: "420", Label: "물리학", Terms: []string{"물리", "물리학", "양자", "상대성", "physics"}},
	{Code: "430", Label: "화학", Terms: []string{"화학", "분자", "원소", "chemistry"}},
	{Code: "440", Label: "천문학", Terms: []string{"천문", "우주", "은하", "astronomy"}},
	{Code: "470", Label: "생명과학", Terms: []string{"생명과학", "생물", "유전", "진화", "세포", "biology"}},

	// 5 기술과학
	{Code: "510", Label: "의학", Terms: []string{"의학", "건강", "질병", "치료", "병원", "의사", "medicine"}},
	{Code: "520", Label: "농업, 농학", Terms: []string{"농업", "농학", "원예", "텃밭", "축산"}},
	{Code: "540", Label: "건축, 건축학", Terms: []string{"건축", "건축학", "인테리어", "주택", "architecture"}},
	{Code: "560", Label: "전기공학, 통신공학, 전자공학", Terms: []string{"전기", "전자", "통신", "반도체", "회로"}},
	{Code: "594", Label: "식품과 음료", Terms: []string{"요리", "레시피", "음식", "베이킹", "식품", "음료"}},

	// 6 예술
	{Code: "650", Label: "회화, 도화, 디자인", Terms: []string{"회화", "그림", "드로잉", "디자인", "일러스트"}},
	{Code: "660", Label: "사진예술", Terms: []string{"사진", "카메라", "photography"}},
	{Code: "670", Label: "음악", Terms: []string{"음악", "작곡", "악기", "클래식", "music"}},
	{Code: "680", Label: "공연예술, 매체예술", Terms: []string{"영화", "연극", "공연", "드라마", "방송", "film"}},
	{Code: "690", Label: "오락, 스포츠", Terms: []string{"스포츠", "운동", "축구", "야구", "게임", "등산", "sports"}},

	// 7 언어
	{Code: "710", Label: "한국어", Terms: []string{"한국어", "국어", "한글", "맞춤법"}},
	{Code: "720", Label: "중국어", Terms: []string{"중국어", "한자", "chinese"}},
	{Code: "730", Label: "일본어, 기타 아시아제어", Terms: []string{"일본어", "japanese"}},
	{Code: "740", Label: "영어", Terms: []string{"영어", "토익", "토플", "english"}},
	{Code: "750", Label: "독일어", Terms: []string{"독일어", "german"}},
	{Code: "760", Label: "프랑스어", Terms: []string{"프랑스어", "french"}},
	{Code: "770", Label: "스페인어, 포르투갈어", Terms: []string{"스페인어", "포르투갈어", "spanish"}},

	// 8 문학
	{Code: "810", Label: "한국문학", Terms: []string{"한국문학", "국문학", "한국 문학"}},
	{Code: "811", Label: "한국 시", Terms: []string{"한국 시", "시집", "시조", "동시", "시인"}},
	{Code: "812", Label: "한국 희곡", Terms: []string{"희곡", "한국 희곡", "시나리오"}},
	{Code: "813", Label: "한국 소설", Terms: []string{"한국 소설", "한국소설", "소설", "장편소설", "단편소설", "소설집", "단편", "장편"}},
	{Code: "814", Label: "한국 수필", Terms: []string{"수필", "에세이", "산문", "산문집", "essay"}},
	{Code: "815", Label: "한국 연설, 웅변", Terms: []string{"연설", "웅변", "강연"}},
	{Code: "816", Label: "한국 일기, 서간, 기행", Terms: []string{"일기", "서간", "편지", "기행", "여행기"}},
	{Code: "817", Label: "한국 풍자 및 유머", Terms: []string{"풍자", "유머", "해학"}},
	{Code: "818", Label: "한국 르포르타주 및 기타", Terms: []string{"르포", "르포르타주", "논픽션"}},
	{Code: "820", Label: "중국문학", Terms: []string{"중국문학", "중국 소설", "한시", "삼국지"}},
	{Code: "823", Label: "중국 소설", Terms: []string{"중국 소설", "무협", "삼국지", "수호지"}},
	{Code: "830", Label: "일본문학", Terms: []string{"일본문학", "일본 소설", "하이쿠"}},
	{Code: "833", Label: "일본 소설", Terms: []string{"일본 소설", "일본소설", "라이트노벨"}},
	{Code: "840", Label: "영미문학", Terms: []string{"영미문학", "영문학", "영미 소설", "셰익스피어"}},
	{Code: "841", Label: "영미 시", Terms: []string{"영미 시", "영시", "poetry"}},
	{Code: "843", Label: "영미 소설", Terms: []string{"영미 소설", "영미소설", "미국 소설", "영국 소설"}},
	{Code: "850", Label: "독일문학", Terms: []string{"독일문학", "독일 소설", "괴테", "카프카"}},
	{Code: "860", Label: "프랑스문학", Terms: []string{"프랑스문학", "프랑스 소설", "카뮈", "위고"}},
	{Code: "863", Label: "프랑스 소설", Terms: []string{"프랑스 소설", "프랑스소설"}},
	{Code: "870", Label: "스페인 및 포르투갈문학", Terms: []string{"스페인문학", "라틴아메리카 문학", "포르투갈문학"}},
	{Code: "880", Label: "이탈리아문학", Terms: []string{"이탈리아문학", "단테"}},
	{Code: "890", Label: "기타 제문학", Terms: []string{"러시아문학", "러시아 소설", "톨스토이", "도스토옙스키"}},

	// 9 역사
	{Code: "910", Label: "아시아", Terms: []string{"아시아사", "동양사", "아시아 역사"}},
	{Code: "911", Label: "한국", Terms: []string{"한국사", "조선", "고려", "삼국시대", "일제강점기", "한국 역사"}},
	{Code: "912", Label: "중국", Terms: []string{"중국사", "중국 역사", "명나라", "청나라", "진시황"}},
	{Code: "913", Label: "일본", Terms: []string{"일본사", "일본 역사", "에도", "메이지"}},
	{Code: "920", Label: "유럽", Terms: []string{"유럽사", "서양사", "로마", "중세", "유럽 역사"}},
	{Code: "940", Label: "북아메리카", Terms: []string{"미국사", "북아메리카", "미국 역사"}},
	{Code: "980", Label: "지리", Terms: []string{"지리", "여행", "여행안내", "지도", "travel"}},
	{Code: "990", Label: "전기", Terms: []string{"전기", "평전", "자서전", "회고록", "biography"}},
}
